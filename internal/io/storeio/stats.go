package storeio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/genomcat/pkg/ent/model"
	"github.com/jinzhu/gorm"
)

// Statistics returns all statistic rows ordered by name.
func (s *storeio) Statistics(ctx context.Context) ([]model.Statistic, error) {
	var res []model.Statistic
	err := s.grm.Order("name").Find(&res).Error
	if err != nil {
		slog.Error("Cannot read statistics", "error", err)
		return nil, err
	}
	return res, nil
}

// Statistic returns one statistic row.
func (s *storeio) Statistic(
	ctx context.Context,
	name string,
) (model.Statistic, error) {
	var res model.Statistic
	err := s.grm.Where("name = ?", name).First(&res).Error
	if gorm.IsRecordNotFoundError(err) {
		return res, fmt.Errorf("statistic %s: %w", name, query.ErrNotFound)
	}
	if err != nil {
		slog.Error("Cannot read statistic", "name", name, "error", err)
		return res, err
	}
	return res, nil
}

// SaveStatistic creates or updates one statistic row.
func (s *storeio) SaveStatistic(ctx context.Context, st model.Statistic) error {
	err := s.grm.Save(&st).Error
	if err != nil {
		slog.Error("Cannot save statistic", "name", st.Name, "error", err)
	}
	return err
}

// ReplaceStatistics deletes all statistic rows and saves new ones in one
// transaction.
func (s *storeio) ReplaceStatistics(
	ctx context.Context,
	sts []model.Statistic,
) error {
	tx := s.grm.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := tx.Delete(model.Statistic{}).Error; err != nil {
		tx.Rollback()
		slog.Error("Cannot delete statistics", "error", err)
		return err
	}
	for i := range sts {
		if err := ctx.Err(); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Create(&sts[i]).Error; err != nil {
			tx.Rollback()
			slog.Error("Cannot create statistic", "name", sts[i].Name,
				"error", err)
			return err
		}
	}
	return tx.Commit().Error
}
