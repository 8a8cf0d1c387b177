package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// ParameterModel はgorm用のモデル定義。
type ParameterModel struct {
	Name      string `gorm:"primaryKey;type:text"`
	Value     string `gorm:"type:text;not null"`
	Secure    bool   `gorm:"not null;default:false"`
	UpdatedAt time.Time
}

// TableName はテーブル名を返す。
func (ParameterModel) TableName() string {
	return "parameters"
}

// LocalParamStore はSQLiteによるローカル開発用の実装。
// 本番のSSMと同じ契約（条件付き書き込み・前方一致列挙）を提供する。
type LocalParamStore struct {
	db *gorm.DB
}

// NewLocalParamStore はSQLiteデータベースを開いてLocalParamStoreを生成する。
func NewLocalParamStore(path string) (*LocalParamStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("registering tracing plugin: %w", err)
	}

	if err := db.AutoMigrate(&ParameterModel{}); err != nil {
		return nil, fmt.Errorf("migrating local store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLiteは単一ライターのため接続を絞る
	sqlDB.SetMaxOpenConns(1)

	return &LocalParamStore{db: db}, nil
}

// Get は指定された名前のパラメータ値を取得する。
// ローカルストアは暗号化を行わないため、decryptは値の解釈に影響しない。
func (s *LocalParamStore) Get(ctx context.Context, name string, decrypt bool) (string, error) {
	var model ParameterModel
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrParameterNotFound
		}
		return "", fmt.Errorf("getting parameter %s: %w", name, err)
	}
	return model.Value, nil
}

// Put はパラメータを書き込む。
func (s *LocalParamStore) Put(ctx context.Context, param Parameter, overwrite bool) error {
	model := &ParameterModel{
		Name:   param.Name,
		Value:  param.Value,
		Secure: param.Secure,
	}

	if !overwrite {
		err := s.db.WithContext(ctx).Create(model).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrParameterAlreadyExists
			}
			return fmt.Errorf("putting parameter %s: %w", param.Name, err)
		}
		return nil
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("putting parameter %s: %w", param.Name, err)
	}
	return nil
}

// Delete は指定された名前のパラメータを削除する。
func (s *LocalParamStore) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&ParameterModel{})
	if result.Error != nil {
		return fmt.Errorf("deleting parameter %s: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrParameterNotFound
	}
	return nil
}

// ListNames は指定されたプレフィックス配下の全パラメータ名を返す。
func (s *LocalParamStore) ListNames(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&ParameterModel{}).
		Where("name LIKE ?", prefix+"%").
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("listing parameters under %s: %w", prefix, err)
	}
	return names, nil
}
