// Copyright 2026 The Stratum Authors
// SPDX-License-Identifier: Apache-2.0

package sqliteblob

import (
	"fmt"
	"os"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Open materializes a database blob as a read-only SQLite connection.
// SQLite wants a file, so the blob is spilled to a temporary file that
// lives as long as the connection; cleanup closes the connection and
// removes the file.
//
// The connection is opened read-only with query_only set: decoded
// metadata is immutable by contract, and the pragma turns any bug
// that tries to write into a loud error.
func Open(data []byte) (conn *sqlite.Conn, cleanup func(), err error) {
	file, err := os.CreateTemp("", "stratum-db-*.sqlite")
	if err != nil {
		return nil, nil, fmt.Errorf("spilling database blob: %w", err)
	}
	path := file.Name()

	removeFile := func() { os.Remove(path) }

	if _, err := file.Write(data); err != nil {
		file.Close()
		removeFile()
		return nil, nil, fmt.Errorf("spilling database blob: %w", err)
	}
	if err := file.Close(); err != nil {
		removeFile()
		return nil, nil, fmt.Errorf("spilling database blob: %w", err)
	}

	conn, err = sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		removeFile()
		return nil, nil, fmt.Errorf("opening database blob: %w", err)
	}

	if err := sqlitex.ExecuteTransient(conn, "PRAGMA query_only=ON", nil); err != nil {
		conn.Close()
		removeFile()
		return nil, nil, fmt.Errorf("configuring database connection: %w", err)
	}

	cleanup = func() {
		conn.Close()
		removeFile()
	}
	return conn, cleanup, nil
}

// ReadProperties loads a key/value properties table into a map. Both
// catalog and history databases carry one.
func ReadProperties(conn *sqlite.Conn) (map[string]string, error) {
	properties := make(map[string]string)
	err := sqlitex.Execute(conn, "SELECT key, value FROM properties", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			properties[stmt.ColumnText(0)] = stmt.ColumnText(1)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return properties, nil
}
