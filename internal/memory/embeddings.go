package memory

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hivemindlab/swarm/internal/scoring"
	"github.com/hivemindlab/swarm/pkg/models"
)

// maxEmbeddedContentLen bounds the stored content text.
const maxEmbeddedContentLen = 2000

// EmbedText maps text to a fixed-width vector by hashing word tokens
// into buckets and L2-normalizing the result. The embedding is
// deterministic, so identical content always maps to identical vectors.
func EmbedText(text string) []float32 {
	vec := make([]float32, models.EmbeddingDimensions)
	for tok := range scoring.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%models.EmbeddingDimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// ContentHash returns the hex SHA-256 of the content, used to
// de-duplicate embeddings for identical text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// storeEmbedding inserts an embedding for the source record. When an
// embedding with the same content hash already exists, no new row is
// written and the existing record is returned.
func (b *Bank) storeEmbedding(sourceID, sourceType, content string) (*models.VectorEmbedding, error) {
	if len(content) > maxEmbeddedContentLen {
		content = content[:maxEmbeddedContentLen]
	}
	hash := ContentHash(content)

	if existing, err := b.embeddingByHash(hash); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	emb := &models.VectorEmbedding{
		ID:          uuid.New().String(),
		SourceID:    sourceID,
		SourceType:  sourceType,
		ContentText: content,
		ContentHash: hash,
		Vector:      EmbedText(content),
		CreatedAt:   time.Now(),
	}

	_, err := b.db.Exec(`
		INSERT INTO vector_embeddings (id, source_id, source_type, content_text, content_hash, vector, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, emb.ID, emb.SourceID, emb.SourceType, emb.ContentText, emb.ContentHash,
		vectorToBytes(emb.Vector), formatTime(emb.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert embedding: %w", err)
	}
	return emb, nil
}

// embeddingByHash returns the embedding with the given content hash, or
// nil when none exists. Caller must hold at least a read lock.
func (b *Bank) embeddingByHash(hash string) (*models.VectorEmbedding, error) {
	row := b.db.QueryRow(`
		SELECT id, source_id, source_type, content_text, content_hash, vector, created_at
		FROM vector_embeddings WHERE content_hash = ? LIMIT 1
	`, hash)
	return scanEmbedding(row)
}

// listEmbeddings returns all embeddings for the given source type.
func (b *Bank) listEmbeddings(sourceType string) ([]*models.VectorEmbedding, error) {
	rows, err := b.db.Query(`
		SELECT id, source_id, source_type, content_text, content_hash, vector, created_at
		FROM vector_embeddings WHERE source_type = ? ORDER BY created_at
	`, sourceType)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	var out []*models.VectorEmbedding
	for rows.Next() {
		emb, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emb)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEmbedding(row rowScanner) (*models.VectorEmbedding, error) {
	var emb models.VectorEmbedding
	var vecBytes []byte
	var createdAt string
	err := row.Scan(&emb.ID, &emb.SourceID, &emb.SourceType, &emb.ContentText,
		&emb.ContentHash, &vecBytes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan embedding: %w", err)
	}
	emb.Vector = bytesToVector(vecBytes)
	if emb.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse embedding created_at: %w", err)
	}
	return &emb, nil
}

// vectorToBytes serializes a float32 vector as little-endian bytes.
func vectorToBytes(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// bytesToVector deserializes a little-endian float32 vector.
func bytesToVector(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// cosine computes the cosine similarity of two equal-length vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
