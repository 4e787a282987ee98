// Package database provides SQLite connectivity for Topic Lab's profile
// store.
//
// This package manages:
//   - Opening the database with WAL mode and a busy timeout
//   - Forward and backward schema migrations read from an fs.FS
//   - A transaction helper
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file is chmod 0600; profiles may hold broker passwords
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "data/topiclab.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
