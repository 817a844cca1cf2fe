package catalog

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"
)

// Repository is a database-backed store for imported meal templates and
// their embeddings. The embedded seed catalog lives outside the database;
// List merges both so the fallback generator always has material even when
// the importer was never run.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or replaces a template.
func (r *Repository) Save(ctx context.Context, t Template) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_templates (id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		t.ID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

// ListImported returns all templates stored in the database.
func (r *Repository) ListImported(ctx context.Context) ([]Template, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM meal_templates`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		var t Template
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			slog.Warn("skipping corrupt template row", "template_id", id, "error", err)
			continue
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// All returns the seed catalog merged with imported templates. Imported
// templates win on ID collision.
func (r *Repository) All(ctx context.Context) ([]Template, error) {
	seed, err := SeedTemplates()
	if err != nil {
		return nil, err
	}

	imported, err := r.ListImported(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(seed))
	for i, t := range seed {
		byID[t.ID] = i
	}
	for _, t := range imported {
		if i, ok := byID[t.ID]; ok {
			seed[i] = t
			continue
		}
		seed = append(seed, t)
	}
	return seed, nil
}

// SaveEmbedding stores the embedding vector for a template.
func (r *Repository) SaveEmbedding(ctx context.Context, templateID string, embedding []float32) error {
	blob := float32SliceToBytes(embedding)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO template_embeddings (template_id, embedding) VALUES (?, ?)
		 ON CONFLICT(template_id) DO UPDATE SET embedding = excluded.embedding`,
		templateID, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// FindSimilar returns up to limit template IDs ranked by cosine similarity
// to the query embedding.
func (r *Repository) FindSimilar(ctx context.Context, queryEmbedding []float32, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT template_id, embedding FROM template_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}
	defer rows.Close()

	type scored struct {
		ID    string
		Score float64
	}
	var candidates []scored

	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		embed, err := bytesToFloat32Slice(blob)
		if err != nil {
			slog.Warn("skipping corrupt embedding", "template_id", id, "error", err)
			continue
		}
		candidates = append(candidates, scored{ID: id, Score: cosineSimilarity(queryEmbedding, embed)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(candidates, func(a, b scored) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	ids := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		ids = append(ids, candidates[i].ID)
	}
	return ids, nil
}

func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(floats))
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length is not a multiple of 4")
	}
	floats := make([]float32, len(b)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return floats, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
