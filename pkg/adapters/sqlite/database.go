// Package sqlite provides a movie database backed by SQLite through GORM.
package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/reel/pkg/adapters/memory"
	"github.com/aretw0/reel/pkg/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Movie is a row of the movies table.
type Movie struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null;index"`
	Genres       string
	DirectorName string
	Actors       string
	PlotKeywords string
	TitleYear    string
	Duration     string
	ImdbScore    string
}

// TableName pins the table name.
func (Movie) TableName() string { return "movies" }

// columns maps the slots that may be queried to their column.
var columns = map[string]string{
	"name":          "name",
	"genres":        "genres",
	"director_name": "director_name",
	"actors":        "actors",
	"plot_keywords": "plot_keywords",
	"title_year":    "title_year",
	"duration":      "duration",
	"imdb_score":    "imdb_score",
}

// DB implements ports.Database over a SQLite file.
type DB struct {
	gorm *gorm.DB
}

// Open opens (creating if needed) the database at dsn and migrates the schema.
func Open(dsn string) (*DB, error) {
	g, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", dsn, err)
	}
	if err := g.AutoMigrate(&Movie{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}
	return &DB{gorm: g}, nil
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Seed inserts records as movies. Records with a numeric "id" keep it.
func (d *DB) Seed(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	movies := make([]Movie, 0, len(records))
	for _, r := range records {
		movies = append(movies, movieFromRecord(r))
	}
	if err := d.gorm.WithContext(ctx).CreateInBatches(movies, 100).Error; err != nil {
		return fmt.Errorf("failed to seed movies: %w", err)
	}
	return nil
}

// Lookup narrows the candidates with LIKE on every filled slot, then keeps
// the rows whose field holds the slot value exactly.
func (d *DB) Lookup(ctx context.Context, state *domain.State) ([]domain.Record, error) {
	q := d.gorm.WithContext(ctx).Model(&Movie{})
	for _, slot := range state.FilledSlots() {
		col, ok := columns[slot]
		if !ok {
			return []domain.Record{}, nil
		}
		q = q.Where(col+" LIKE ?", "%"+strings.TrimSpace(state.SlotsFilled[slot])+"%")
	}

	var movies []Movie
	if err := q.Order("id").Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}

	out := make([]domain.Record, 0, len(movies))
	for _, m := range movies {
		r := m.Record()
		if memory.Matches(r, state) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Record converts the row to a domain record, omitting empty fields.
func (m Movie) Record() domain.Record {
	r := domain.Record{"id": strconv.FormatUint(uint64(m.ID), 10)}
	set := func(k, v string) {
		if v != "" {
			r[k] = v
		}
	}
	set("name", m.Name)
	set("genres", m.Genres)
	set("director_name", m.DirectorName)
	set("actors", m.Actors)
	set("plot_keywords", m.PlotKeywords)
	set("title_year", m.TitleYear)
	set("duration", m.Duration)
	set("imdb_score", m.ImdbScore)
	return r
}

func movieFromRecord(r domain.Record) Movie {
	m := Movie{
		Name:         r["name"],
		Genres:       r["genres"],
		DirectorName: r["director_name"],
		Actors:       r["actors"],
		PlotKeywords: r["plot_keywords"],
		TitleYear:    r["title_year"],
		Duration:     r["duration"],
		ImdbScore:    r["imdb_score"],
	}
	if id, err := strconv.ParseUint(r["id"], 10, 64); err == nil {
		m.ID = uint(id)
	}
	return m
}
