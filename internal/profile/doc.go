// Package profile persists saved broker connections and their buttons.
//
// The data model is a list of Connection profiles plus the id of the one
// used last. Two Store implementations share it:
//
//   - JSONStore keeps a pretty-printed data.json in a directory and
//     migrates the single-project project.json layout of older releases on
//     first load.
//   - SQLiteStore keeps each profile as a JSON document row, for setups
//     where several processes read the same profiles.
//
// Topics, payloads and subscription filters may contain {name}
// placeholders that are expanded from the connection's variables at use
// time; they are stored unexpanded.
package profile
