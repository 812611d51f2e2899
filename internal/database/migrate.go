package database

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Migration is one versioned pair of up and down SQL scripts.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// Checksum fingerprints the up script so an edited migration that already
// ran is detected instead of silently skipped.
func (m Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.UpScript))
	return hex.EncodeToString(sum[:])
}

const migrationsDir = "migrations"

var migrationFileRe = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

//go:embed migrations/*.sql
var migrationFS embed.FS

var embedded = sync.OnceValues(func() ([]Migration, error) {
	return LoadMigrations(migrationFS)
})

// EmbeddedMigrations returns the migrations compiled into the binary.
func EmbeddedMigrations() ([]Migration, error) {
	return embedded()
}

// LoadMigrations reads NNNNNN_name.up.sql and NNNNNN_name.down.sql pairs from
// the migrations directory of fsys and returns them in version order.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	type pair struct {
		Migration
		hasUp, hasDown bool
	}
	byVersion := make(map[int]*pair)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFileRe.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("unexpected file %q in %s", entry.Name(), migrationsDir)
		}
		version, _ := strconv.Atoi(match[1])
		name, direction := match[2], match[3]

		body, err := fs.ReadFile(fsys, path.Join(migrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		p, ok := byVersion[version]
		if !ok {
			p = &pair{Migration: Migration{Version: version, Name: name}}
			byVersion[version] = p
		} else if p.Name != name {
			return nil, fmt.Errorf("version %06d is used by both %q and %q", version, p.Name, name)
		}

		if direction == "up" {
			p.UpScript, p.hasUp = string(body), true
		} else {
			p.DownScript, p.hasDown = string(body), true
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, p := range byVersion {
		switch {
		case !p.hasUp:
			return nil, fmt.Errorf("migration %s has no up script", p.Migration)
		case !p.hasDown:
			return nil, fmt.Errorf("migration %s has no down script", p.Migration)
		case strings.TrimSpace(p.UpScript) == "":
			return nil, fmt.Errorf("migration %s has an empty up script", p.Migration)
		}
		out = append(out, p.Migration)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
