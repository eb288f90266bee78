package database

import (
	"songvault/database/model"

	"gorm.io/gorm"
)

// UserRepository is the persistence interface for user records.
// Implementations must enforce email uniqueness at the storage layer.
type UserRepository interface {
	FindByEmail(email string) (*model.User, error)
	FindByID(id int) (*model.User, error)
	Insert(user *model.User) error
	Update(user *model.User) error
}

// SongRepository is the persistence interface for uploaded songs.
type SongRepository interface {
	InsertBatch(songs []*model.Song) error
	FindByID(id int) (*model.Song, error)
	FindByUser(userId int) ([]*model.Song, error)
	CountByUser(userId int) (int64, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a UserRepository backed by the given gorm DB.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) FindByEmail(email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.Model(model.User{}).
		Where("email = ?", email).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *gormUserRepository) FindByID(id int) (*model.User, error) {
	user := &model.User{}
	err := r.db.Model(model.User{}).
		Where("id = ?", id).
		First(user).
		Error
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *gormUserRepository) Insert(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *gormUserRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewSongRepository returns a SongRepository backed by the given gorm DB.
func NewSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

func (r *gormSongRepository) InsertBatch(songs []*model.Song) error {
	if len(songs) == 0 {
		return nil
	}
	return r.db.Create(songs).Error
}

func (r *gormSongRepository) FindByID(id int) (*model.Song, error) {
	song := &model.Song{}
	err := r.db.Model(model.Song{}).
		Where("id = ?", id).
		First(song).
		Error
	if err != nil {
		return nil, err
	}
	return song, nil
}

func (r *gormSongRepository) FindByUser(userId int) ([]*model.Song, error) {
	songs := make([]*model.Song, 0)
	err := r.db.Model(model.Song{}).
		Where("user_id = ?", userId).
		Order("id asc").
		Find(&songs).
		Error
	if err != nil {
		return nil, err
	}
	return songs, nil
}

func (r *gormSongRepository) CountByUser(userId int) (int64, error) {
	var count int64
	err := r.db.Model(model.Song{}).
		Where("user_id = ?", userId).
		Count(&count).
		Error
	return count, err
}
