package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Extension string    `gorm:"type:varchar(16);not null"`
	SizeBytes int64     `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

type IndexBuild struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BuildId    string    `gorm:"type:varchar(64);index"`
	Embedder   string    `gorm:"type:varchar(255)"`
	Reason     string    `gorm:"type:varchar(64)"`
	Status     string    `gorm:"type:varchar(32);not null"`
	Chunks     int       `gorm:"not null;default:0"`
	Documents  int       `gorm:"not null;default:0"`
	Skipped    string    `gorm:"type:text"`
	DurationMs int64     `gorm:"not null;default:0"`
	Error      string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (IndexBuild) TableName() string {
	return "index_builds"
}

// All lists the models owned by the catalog, for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Document{}, &IndexBuild{}}
}
