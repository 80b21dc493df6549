package modelio

import (
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/jinzhu/gorm"
)

type modelio struct {
	db *gorm.DB
}

// New returns a new instance of Model
func New(db *gorm.DB) model.Model {
	res := modelio{db: db}
	return &res
}

// Migrate creates or updates tables of static models.
func (m *modelio) Migrate() error {
	res := m.db.AutoMigrate(
		&model.Statistic{},
	)
	return res.Error
}
