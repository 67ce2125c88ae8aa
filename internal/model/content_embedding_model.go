package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ContentEmbedding struct {
	Id        string            `gorm:"type:varchar(128);primaryKey"`
	PostId    string            `gorm:"type:varchar(128);not null;index"`
	Content   string            `gorm:"type:text"`
	Embedding pgvector.Vector   `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 both use 768 dimensions
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	Category  string            `gorm:"type:varchar(64);index"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (ContentEmbedding) TableName() string {
	return "content_embeddings"
}
