package bill

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const auditBucketName = "audits"

// DB defines the interface for audit record persistence
type DB interface {
	// SaveAudit saves an audit record to the database
	SaveAudit(record *AuditRecord) error

	// GetAudit retrieves an audit record by ID
	GetAudit(id string) (*AuditRecord, error)

	// ListAudits returns all audit records
	ListAudits() ([]*AuditRecord, error)

	// DeleteAudit removes an audit record from the database
	DeleteAudit(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(auditBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveAudit saves an audit record to the database
func (b *BoltDB) SaveAudit(record *AuditRecord) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(auditBucketName))
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshaling audit record: %w", err)
		}
		return bucket.Put([]byte(record.ID), data)
	})
}

// GetAudit retrieves an audit record by ID
func (b *BoltDB) GetAudit(id string) (*AuditRecord, error) {
	var record *AuditRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(auditBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("audit record not found: %s", id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListAudits returns all audit records
func (b *BoltDB) ListAudits() ([]*AuditRecord, error) {
	records := make([]*AuditRecord, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(auditBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var record AuditRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("unmarshaling audit record: %w", err)
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteAudit removes an audit record from the database
func (b *BoltDB) DeleteAudit(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(auditBucketName))
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
