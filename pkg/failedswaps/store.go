// Package failedswaps persists the durable record of intents evicted after
// exhausting their swap retries.
package failedswaps

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/metrics"
	"github.com/warehouse13/agi-solver/pkg/models"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-based persistent storage for failed swaps
type Store struct {
	db     *sql.DB
	path   string
	logger logger.Logger
}

// NewStore opens (or creates) the failed swaps database at path
func NewStore(path string, lg logger.Logger) (*Store, error) {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open failed swaps database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{
		db:     db,
		path:   path,
		logger: lg,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.refreshRowGauge()

	return store, nil
}

// initSchema creates the database schema if it doesn't exist
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS failed_swaps (
		agi_id INTEGER PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		error_message TEXT NOT NULL,
		intent_type INTEGER NOT NULL,
		asset_to_sell TEXT NOT NULL,
		amount_to_sell TEXT NOT NULL,
		asset_to_buy TEXT NOT NULL,
		order_id INTEGER NOT NULL,
		order_status INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record writes one failed swap row. A row already present for the intent is
// left untouched so eviction stays exactly-once even across restarts.
func (s *Store) Record(fs models.FailedSwap) error {
	// agi_id and order_id carry the same value; viewAGI reports the intent id
	// as its order id
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO failed_swaps
		(agi_id, timestamp, error_message, intent_type, asset_to_sell, amount_to_sell, asset_to_buy, order_id, order_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fs.OrderID,
		fs.Timestamp,
		fs.ErrorMessage,
		fs.IntentType,
		fs.AssetToSell,
		fs.AmountToSell,
		fs.AssetToBuy,
		fs.OrderID,
		fs.OrderStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to record failed swap for AGI %d: %w", fs.OrderID, err)
	}

	s.logger.NoticeWith(logger.Store, "recorded failed swap for AGI %d: %s", fs.OrderID, fs.ErrorMessage)
	s.refreshRowGauge()
	return nil
}

// Delete removes the failed swap row for an intent. Deleting a missing row is
// not an error.
func (s *Store) Delete(orderID uint64) error {
	result, err := s.db.Exec(`DELETE FROM failed_swaps WHERE agi_id = ?`, orderID)
	if err != nil {
		return fmt.Errorf("failed to delete failed swap for AGI %d: %w", orderID, err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		s.logger.InfoWith(logger.Store, "cleared failed swap record for AGI %d", orderID)
	}
	s.refreshRowGauge()
	return nil
}

// Get returns the failed swap row for an intent if one exists
func (s *Store) Get(orderID uint64) (models.FailedSwap, bool, error) {
	row := s.db.QueryRow(
		`SELECT agi_id, timestamp, error_message, intent_type, asset_to_sell, amount_to_sell, asset_to_buy, order_status
		FROM failed_swaps WHERE agi_id = ?`, orderID)

	var fs models.FailedSwap
	err := row.Scan(&fs.OrderID, &fs.Timestamp, &fs.ErrorMessage, &fs.IntentType,
		&fs.AssetToSell, &fs.AmountToSell, &fs.AssetToBuy, &fs.OrderStatus)
	if err == sql.ErrNoRows {
		return models.FailedSwap{}, false, nil
	}
	if err != nil {
		return models.FailedSwap{}, false, fmt.Errorf("failed to read failed swap for AGI %d: %w", orderID, err)
	}
	return fs, true, nil
}

// List returns all failed swap rows ordered by intent id
func (s *Store) List() ([]models.FailedSwap, error) {
	rows, err := s.db.Query(
		`SELECT agi_id, timestamp, error_message, intent_type, asset_to_sell, amount_to_sell, asset_to_buy, order_status
		FROM failed_swaps ORDER BY agi_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed swaps: %w", err)
	}
	defer rows.Close()

	var result []models.FailedSwap
	for rows.Next() {
		var fs models.FailedSwap
		if err := rows.Scan(&fs.OrderID, &fs.Timestamp, &fs.ErrorMessage, &fs.IntentType,
			&fs.AssetToSell, &fs.AmountToSell, &fs.AssetToBuy, &fs.OrderStatus); err != nil {
			return nil, fmt.Errorf("failed to scan failed swap row: %w", err)
		}
		result = append(result, fs)
	}
	return result, rows.Err()
}

// Count returns the number of failed swap rows
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM failed_swaps`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count failed swaps: %w", err)
	}
	return count, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) refreshRowGauge() {
	if count, err := s.Count(); err == nil {
		metrics.FailedSwapRows.Set(float64(count))
	}
}
