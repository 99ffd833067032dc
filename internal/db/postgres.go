package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/parcel-trip-backend/internal/logger"
)

// NewPostgres создаёт подключение к PostgreSQL с заданным DSN.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	// транзакции отмены держат FOR UPDATE на нескольких строках, поэтому пул ограничен
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)
	conn.SetConnMaxIdleTime(time.Minute)

	return conn, nil
}

// migration - SQL файл миграции и контрольная сумма его содержимого.
type migration struct {
	name     string
	body     string
	checksum string
}

// RunMigrations применяет новые SQL файлы из каталога по порядку имён. Уже
// применённый файл не должен меняться: при расхождении контрольной суммы
// запуск останавливается.
func RunMigrations(ctx context.Context, conn *sqlx.DB, migrationsDir string) error {
	if err := initMigrationsTable(ctx, conn); err != nil {
		return fmt.Errorf("postgres: не удалось инициализировать таблицу миграций: %w", err)
	}

	migrations, err := loadMigrations(migrationsDir)
	if err != nil {
		return err
	}

	applied, err := appliedChecksums(ctx, conn)
	if err != nil {
		return fmt.Errorf("postgres: не удалось прочитать применённые миграции: %w", err)
	}

	for _, m := range migrations {
		if checksum, ok := applied[m.name]; ok {
			// миграции, применённые до появления контрольных сумм, хранят пустую строку
			if checksum != "" && checksum != m.checksum {
				return fmt.Errorf("postgres: миграция %s изменена после применения (было %s, стало %s)",
					m.name, shortChecksum(checksum), shortChecksum(m.checksum))
			}
			continue
		}

		started := time.Now()
		if err := applyMigration(ctx, conn, m); err != nil {
			return err
		}
		logger.Log.WithFields(logrus.Fields{
			"migration": m.name,
			"checksum":  shortChecksum(m.checksum),
			"duration":  time.Since(started).String(),
		}).Info("Миграция применена")
	}

	return nil
}

func loadMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось прочитать каталог миграций %s: %w", dir, err)
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		body, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("postgres: не удалось прочитать миграцию %s: %w", entry.Name(), err)
		}
		sum := sha256.Sum256(body)
		migrations = append(migrations, migration{
			name:     entry.Name(),
			body:     string(body),
			checksum: hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].name < migrations[j].name
	})
	return migrations, nil
}

func initMigrationsTable(ctx context.Context, conn *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			checksum TEXT NOT NULL DEFAULT '',
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		ALTER TABLE schema_migrations ADD COLUMN IF NOT EXISTS checksum TEXT NOT NULL DEFAULT '';
	`
	_, err := conn.ExecContext(ctx, query)
	return err
}

func appliedChecksums(ctx context.Context, conn *sqlx.DB) (map[string]string, error) {
	var rows []struct {
		Name     string `db:"name"`
		Checksum string `db:"checksum"`
	}
	if err := conn.SelectContext(ctx, &rows, `SELECT name, checksum FROM schema_migrations`); err != nil {
		return nil, err
	}
	applied := make(map[string]string, len(rows))
	for _, r := range rows {
		applied[r.Name] = r.Checksum
	}
	return applied, nil
}

// applyMigration выполняет миграцию и отмечает её в одной транзакции.
func applyMigration(ctx context.Context, conn *sqlx.DB, m migration) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: не удалось начать транзакцию для миграции %s: %w", m.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.body); err != nil {
		return fmt.Errorf("postgres: не удалось выполнить миграцию %s: %w", m.name, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (name, checksum) VALUES ($1, $2)`, m.name, m.checksum)
	if err != nil {
		return fmt.Errorf("postgres: не удалось отметить миграцию %s как выполненную: %w", m.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: не удалось зафиксировать транзакцию для миграции %s: %w", m.name, err)
	}
	return nil
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
