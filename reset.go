package bit2

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// dialect holds the statements needed to wipe a database while foreign key
// enforcement is suspended.
type dialect struct {
	disableFK   string
	enableFK    string
	listTables  string
	dropTable   string
	deleteTable string
}

var dialects = map[string]dialect{
	DbSqlite: {
		disableFK:   "PRAGMA foreign_keys = OFF",
		enableFK:    "PRAGMA foreign_keys = ON",
		listTables:  "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE '_litestream_%' AND name NOT LIKE 'libsql_%'",
		dropTable:   `DROP TABLE IF EXISTS "%s"`,
		deleteTable: `DELETE FROM "%s"`,
	},
	DbMySQL: {
		disableFK:   "SET FOREIGN_KEY_CHECKS = 0",
		enableFK:    "SET FOREIGN_KEY_CHECKS = 1",
		listTables:  "SHOW TABLES",
		dropTable:   "DROP TABLE IF EXISTS `%s`",
		deleteTable: "TRUNCATE TABLE `%s`",
	},
	DbPostgres: {
		disableFK:   "SET session_replication_role = 'replica'",
		enableFK:    "SET session_replication_role = 'origin'",
		listTables:  "SELECT tablename FROM pg_tables WHERE schemaname = 'public'",
		dropTable:   `DROP TABLE IF EXISTS "%s" CASCADE`,
		deleteTable: `TRUNCATE TABLE "%s" CASCADE`,
	},
}

func init() {
	dialects[DbLibSQL] = dialects[DbSqlite]
}

func lookupDialect(driverName string) (dialect, error) {
	d, ok := dialects[driverName]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported database driver: %s", driverName)
	}
	return d, nil
}

// ListTables returns the user tables of the named connection.
func (m *ConnectionManager) ListTables(ctx context.Context, name string) ([]string, error) {
	db, d, err := m.dialectConnection(name)
	if err != nil {
		return nil, err
	}
	var tables []string
	if err := db.WithContext(ctx).Raw(d.listTables).Scan(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	return tables, nil
}

// FlushAllTables deletes all records from all tables in the database, ignoring foreign key constraints
func (m *ConnectionManager) FlushAllTables(ctx context.Context, name string) error {
	return m.eachTable(ctx, name, "flush", func(d dialect) string { return d.deleteTable })
}

// DropAllTables drops all tables in the database, ignoring foreign key constraints
func (m *ConnectionManager) DropAllTables(ctx context.Context, name string) error {
	return m.eachTable(ctx, name, "drop", func(d dialect) string { return d.dropTable })
}

func (m *ConnectionManager) dialectConnection(name string) (*gorm.DB, dialect, error) {
	driverName, err := m.DriverName(name)
	if err != nil {
		return nil, dialect{}, err
	}
	d, err := lookupDialect(driverName)
	if err != nil {
		return nil, dialect{}, err
	}
	db, err := m.GetConnection(name)
	if err != nil {
		return nil, dialect{}, fmt.Errorf("failed to get connection: %w", err)
	}
	return db, d, nil
}

func (m *ConnectionManager) eachTable(ctx context.Context, name, action string, stmt func(dialect) string) error {
	db, d, err := m.dialectConnection(name)
	if err != nil {
		return err
	}

	// Session settings must stay on one physical connection.
	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := conn.Exec(d.disableFK).Error; err != nil {
			return fmt.Errorf("failed to disable foreign keys: %w", err)
		}

		var tables []string
		if err := conn.Raw(d.listTables).Scan(&tables).Error; err != nil {
			return fmt.Errorf("failed to get table names: %w", err)
		}

		for _, table := range tables {
			if err := conn.Exec(fmt.Sprintf(stmt(d), table)).Error; err != nil {
				return fmt.Errorf("failed to %s table %s: %w", action, table, err)
			}
		}

		if err := conn.Exec(d.enableFK).Error; err != nil {
			return fmt.Errorf("failed to re-enable foreign keys: %w", err)
		}
		return nil
	})
}
