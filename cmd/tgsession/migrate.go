package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	migrations "github.com/dropDatabas3/tgsession/migrations"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate [up|down] [steps]",
		Short: "Aplica las migraciones de esquema de Postgres",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			steps := 0
			if len(args) >= 1 && args[0] != "" {
				action = strings.ToLower(args[0])
			}
			if len(args) >= 2 {
				if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
					steps = n
				}
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("pgxpool: %w", err)
			}
			defer pool.Close()

			// Por defecto usamos las migraciones embebidas en el binario;
			// --dir permite apuntar a un directorio del disco.
			var fsys fs.FS
			root := migrations.PostgresDir
			if dir != "" {
				fsys = os.DirFS(dir)
				root = "."
			} else {
				fsys = migrations.PostgresFS
			}

			switch action {
			case "up":
				return applyMigrations(ctx, pool, fsys, root, "_up.sql", steps, false)
			case "down":
				return applyMigrations(ctx, pool, fsys, root, "_down.sql", steps, true)
			default:
				return fmt.Errorf("unknown action %q. Use: up | down [steps]", action)
			}
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directorio de migraciones (default: embebidas)")
	return cmd
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, root, suffix string, steps int, reverse bool) error {
	files, err := listSQL(fsys, root, suffix)
	if err != nil {
		return fmt.Errorf("list %s: %w", suffix, err)
	}
	if len(files) == 0 {
		log.Printf("No *%s migrations found. Nothing to do.", suffix)
		return nil
	}

	sort.Strings(files) // orden ascendente
	if reverse {
		reverseInPlace(files)
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	log.Printf("Applying %d migration(s)...", len(files))
	for _, f := range files {
		if err := execSQLFile(ctx, pool, fsys, f); err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}
	}
	log.Println("Migrations completed.")
	return nil
}

func listSQL(fsys fs.FS, root, suffix string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			name := e.Name()
			if strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
				out = append(out, path.Join(root, name))
			}
		}
	}
	return out, nil
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}

func execSQLFile(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, p string) error {
	b, err := fs.ReadFile(fsys, p)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	start := time.Now()
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	log.Printf("OK %s (%s)", path.Base(p), time.Since(start).Truncate(time.Millisecond))
	return nil
}
