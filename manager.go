package bit2

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

const (
	DbMySQL    = "mysql"
	DbPostgres = "postgres"
	DbSqlite   = "sqlite"
	DbLibSQL   = "libsql"
)

// ConnectionFunc opens a gorm connection for a DSN.
type ConnectionFunc func(dsn string) (*gorm.DB, error)

type connDsn struct {
	DriverName string
	Dsn        string
}

// ConnectionManager keeps named database connections and opens them lazily.
type ConnectionManager struct {
	connConfigs   map[string]connDsn
	connectionFns map[string]ConnectionFunc
	connections   map[string]*gorm.DB
	mu            sync.RWMutex
	// Applied scripts, for RunScriptOnce
	appliedScripts map[string]struct{}
	scriptMu       sync.Mutex
}

func (m *ConnectionManager) AddConnectionFunc(driverName string, f ConnectionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectionFns[driverName] = f
}

func (m *ConnectionManager) SetDsn(name, driverName, dsn string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connConfigs[name] = connDsn{
		DriverName: driverName,
		Dsn:        dsn,
	}
}

// DriverName returns the driver registered for the named connection.
func (m *ConnectionManager) DriverName(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	config, exists := m.connConfigs[name]
	if !exists {
		return "", fmt.Errorf("database connection config not found for %s", name)
	}
	return config.DriverName, nil
}

func (m *ConnectionManager) GetConnection(name string) (*gorm.DB, error) {
	m.mu.RLock()
	config, exists := m.connConfigs[name]
	if !exists {
		m.mu.RUnlock()
		return nil, fmt.Errorf("database connection config not found for %s", name)
	}
	connFn, exists := m.connectionFns[config.DriverName]
	if !exists {
		m.mu.RUnlock()
		return nil, fmt.Errorf("database connection function not found for driver %s", config.DriverName)
	}
	conn, exists := m.connections[name]
	m.mu.RUnlock()
	if exists {
		return conn, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another goroutine might have opened it while we were waiting for the lock
	if conn, exists = m.connections[name]; exists {
		return conn, nil
	}
	conn, err := connFn(config.Dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection %s: %w", config.DriverName, name, err)
	}
	m.connections[name] = conn
	return conn, nil
}

// Executor returns an Executor that runs statements on the named connection.
func (m *ConnectionManager) Executor(name string) (Executor, error) {
	db, err := m.GetConnection(name)
	if err != nil {
		return nil, err
	}
	return gormExecutor{db: db}, nil
}

type gormExecutor struct {
	db *gorm.DB
}

func (e gormExecutor) ExecContext(ctx context.Context, statement string) error {
	return e.db.WithContext(ctx).Exec(statement).Error
}

func (m *ConnectionManager) Close(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, exists := m.connections[name]
	if !exists {
		return fmt.Errorf("connection %s not found", name)
	}
	if conn == nil {
		return fmt.Errorf("connection was not established")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err = sqlDB.Close(); err != nil {
		return err
	}
	delete(m.connections, name)
	return nil
}

func (m *ConnectionManager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, conn := range m.connections {
		if conn == nil {
			continue
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err = sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close connection %s: %w", name, err)
		}
	}
	m.connections = make(map[string]*gorm.DB)
	return nil
}

var (
	instance *ConnectionManager
	once     sync.Once
)

// GetManager returns the process-wide ConnectionManager with the default
// drivers registered.
func GetManager() *ConnectionManager {
	once.Do(func() {
		instance = NewConnectionManager()
		instance.RegisterDefaultDrivers()
	})
	return instance
}

// NewConnectionManager creates an empty ConnectionManager. No drivers are
// registered; call RegisterDefaultDrivers or AddConnectionFunc.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connConfigs:    make(map[string]connDsn),
		connectionFns:  make(map[string]ConnectionFunc),
		connections:    make(map[string]*gorm.DB),
		appliedScripts: make(map[string]struct{}),
	}
}
