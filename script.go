package bit2

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"
)

// ReadScript loads a SQL file and splits it, rejecting files that contain
// no statements.
func ReadScript(filePath string) ([]string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SQL file %s: %w", filePath, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, fmt.Errorf("SQL file %s is empty", filePath)
	}
	statements := SplitStatements(string(content))
	if len(statements) == 0 {
		return nil, fmt.Errorf("no valid SQL statements found in file %s", filePath)
	}
	return statements, nil
}

// RunScript loads a SQL file and executes its statements inside a single
// transaction on the named connection.
func (m *ConnectionManager) RunScript(ctx context.Context, name, filePath string) error {
	db, err := m.GetConnection(name)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}

	statements, err := ReadScript(filePath)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ExecStatements(ctx, gormExecutor{db: tx}, statements, AbortOnError)
		if err != nil {
			return fmt.Errorf("failed to apply %s: %w", filePath, err)
		}
		return nil
	})
}

// RunScriptOnce runs RunScript only once per connection name and file path
// for the lifetime of the manager. Failed runs are not remembered.
func (m *ConnectionManager) RunScriptOnce(ctx context.Context, name, filePath string) error {
	key := fmt.Sprintf("%s:%s", name, filePath)

	m.scriptMu.Lock()
	defer m.scriptMu.Unlock()

	if _, exists := m.appliedScripts[key]; exists {
		return nil
	}
	if err := m.RunScript(ctx, name, filePath); err != nil {
		return err
	}
	m.appliedScripts[key] = struct{}{}
	return nil
}

// ApplyScript splits script and executes the statements one at a time on the
// named connection, outside a transaction. The policy decides whether a
// failing statement stops the run.
func (m *ConnectionManager) ApplyScript(ctx context.Context, name, script string, policy ErrorPolicy) (*ExecReport, error) {
	ex, err := m.Executor(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return ExecScript(ctx, ex, script, policy)
}

// ApplyFile is ApplyScript for a file on disk.
func (m *ConnectionManager) ApplyFile(ctx context.Context, name, filePath string, policy ErrorPolicy) (*ExecReport, error) {
	statements, err := ReadScript(filePath)
	if err != nil {
		return nil, err
	}
	ex, err := m.Executor(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	report, err := ExecStatements(ctx, ex, statements, policy)
	if err != nil {
		return report, fmt.Errorf("failed to apply %s: %w", filePath, err)
	}
	return report, nil
}
