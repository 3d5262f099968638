// Package state persists stack resources, exports and audit events in sqlite.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/castai/pulumi-castai/pkg/audit"
	"github.com/castai/pulumi-castai/pkg/resource"
)

// DefaultPath is the state database used when none is configured
const DefaultPath = "./castai-state.db"

// ErrNotFound is returned when a resource is not in the store
var ErrNotFound = errors.New("resource not found in state")

// Resource is a registered resource as stored for a stack
type Resource struct {
	URN       string
	Stack     string
	Token     string
	Name      string
	ID        string
	Inputs    resource.PropertyMap
	Outputs   resource.PropertyMap
	Sequence  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is a gorm backed state store
type Store struct {
	db *gorm.DB
}

// Open opens a sqlite state database. Accepted forms are a file path,
// "sqlite:<dsn>" and ":memory:".
func Open(dbURL string) (*Store, error) {
	dsn := dbURL
	for _, prefix := range []string{"sqlite3:", "sqlite:"} {
		if strings.HasPrefix(dsn, prefix) {
			dsn = strings.TrimPrefix(dsn, prefix)
			break
		}
	}
	if dsn == "" {
		dsn = DefaultPath
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database %q: %w", dsn, err)
	}

	// sqlite allows a single writer, and every :memory: connection is a new database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access state database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return New(db)
}

// New wraps an open gorm DB and applies migrations
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&ResourceRecord{}, &ExportRecord{}, &AuditRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return &Store{db: db}, nil
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeProps(data string) (resource.PropertyMap, error) {
	if data == "" {
		return resource.PropertyMap{}, nil
	}
	props := resource.PropertyMap{}
	if err := json.Unmarshal([]byte(data), &props); err != nil {
		return nil, err
	}
	return props, nil
}

func toRecord(r *Resource) (*ResourceRecord, error) {
	inputs, err := encodeJSON(r.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inputs of %s: %w", r.URN, err)
	}
	outputs, err := encodeJSON(r.Outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outputs of %s: %w", r.URN, err)
	}
	return &ResourceRecord{
		URN:        r.URN,
		Stack:      r.Stack,
		Token:      r.Token,
		Name:       r.Name,
		ResourceID: r.ID,
		Inputs:     inputs,
		Outputs:    outputs,
		Sequence:   r.Sequence,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func toResource(rec *ResourceRecord) (*Resource, error) {
	inputs, err := decodeProps(rec.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode inputs of %s: %w", rec.URN, err)
	}
	outputs, err := decodeProps(rec.Outputs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode outputs of %s: %w", rec.URN, err)
	}
	return &Resource{
		URN:       rec.URN,
		Stack:     rec.Stack,
		Token:     rec.Token,
		Name:      rec.Name,
		ID:        rec.ResourceID,
		Inputs:    inputs,
		Outputs:   outputs,
		Sequence:  rec.Sequence,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// SaveResource inserts or updates a resource. New resources are appended
// after the last registered resource of their stack.
func (s *Store) SaveResource(ctx context.Context, r *Resource) error {
	if r.URN == "" || r.Stack == "" {
		return fmt.Errorf("resource URN and stack are required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing ResourceRecord
		err := tx.First(&existing, "urn = ?", r.URN).Error
		switch {
		case err == nil:
			r.Sequence = existing.Sequence
			r.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxSeq int
			if err := tx.Model(&ResourceRecord{}).Where("stack = ?", r.Stack).
				Select("COALESCE(MAX(sequence), 0)").Row().Scan(&maxSeq); err != nil {
				return err
			}
			r.Sequence = maxSeq + 1
			r.CreatedAt = time.Now()
		default:
			return err
		}
		r.UpdatedAt = time.Now()

		rec, err := toRecord(r)
		if err != nil {
			return err
		}
		return tx.Save(rec).Error
	})
}

// GetResource returns the resource with the given URN
func (s *Store) GetResource(ctx context.Context, urn string) (*Resource, error) {
	var rec ResourceRecord
	if err := s.db.WithContext(ctx).First(&rec, "urn = ?", urn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toResource(&rec)
}

// ListResources returns the resources of a stack in registration order
func (s *Store) ListResources(ctx context.Context, stack string) ([]*Resource, error) {
	var recs []ResourceRecord
	if err := s.db.WithContext(ctx).Where("stack = ?", stack).Order("sequence ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*Resource, 0, len(recs))
	for i := range recs {
		r, err := toResource(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// DeleteResource removes a resource
func (s *Store) DeleteResource(ctx context.Context, urn string) error {
	res := s.db.WithContext(ctx).Delete(&ResourceRecord{}, "urn = ?", urn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStacks returns the names of stacks that hold resources or exports
func (s *Store) ListStacks(ctx context.Context) ([]string, error) {
	var stacks []string
	err := s.db.WithContext(ctx).Raw(
		"SELECT stack FROM resources UNION SELECT stack FROM exports ORDER BY stack",
	).Scan(&stacks).Error
	return stacks, err
}

// SaveExports replaces the exports of a stack
func (s *Store) SaveExports(ctx context.Context, stack string, exports map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&ExportRecord{}, "stack = ?", stack).Error; err != nil {
			return err
		}
		now := time.Now()
		for name, value := range exports {
			encoded, err := encodeJSON(value)
			if err != nil {
				return fmt.Errorf("failed to encode export %q: %w", name, err)
			}
			if err := tx.Create(&ExportRecord{Stack: stack, Name: name, Value: encoded, UpdatedAt: now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Exports returns the exports of a stack
func (s *Store) Exports(ctx context.Context, stack string) (map[string]any, error) {
	var recs []ExportRecord
	if err := s.db.WithContext(ctx).Where("stack = ?", stack).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]any, len(recs))
	for _, rec := range recs {
		var value any
		if rec.Value != "" {
			if err := json.Unmarshal([]byte(rec.Value), &value); err != nil {
				return nil, fmt.Errorf("failed to decode export %q: %w", rec.Name, err)
			}
		}
		out[rec.Name] = value
	}
	return out, nil
}

// Write stores an audit event
func (s *Store) Write(event *audit.AuditEvent) error {
	details, err := encodeJSON(event.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	rec := &AuditRecord{
		ID:        uuid.NewString(),
		Stack:     event.Stack,
		EventType: string(event.EventType),
		Category:  string(event.Category),
		Severity:  string(event.Severity),
		Outcome:   event.Outcome,
		Message:   event.Message,
		RequestID: event.RequestID,
		Details:   details,
		Timestamp: event.Timestamp,
	}
	if event.Resource != nil {
		rec.Token = event.Resource.Token
		rec.Name = event.Resource.Name
	}
	return s.db.Create(rec).Error
}

// AuditEvents returns the stored audit events of a stack, oldest first
func (s *Store) AuditEvents(ctx context.Context, stack string) ([]AuditRecord, error) {
	var recs []AuditRecord
	err := s.db.WithContext(ctx).Where("stack = ?", stack).Order("timestamp ASC, rowid ASC").Find(&recs).Error
	return recs, err
}

// Close closes the database. Closing twice is allowed.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ audit.EventSink = (*Store)(nil)
