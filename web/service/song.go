package service

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"songvault/database"
	"songvault/database/model"
	"songvault/logger"

	"github.com/google/uuid"
)

// ErrEmptyUpload is returned when a CSV upload yields no usable rows.
var ErrEmptyUpload = errors.New("no songs found in upload")

// SongService imports and reads a user's uploaded music catalog.
type SongService struct {
	songs database.SongRepository
}

func NewSongService(songs database.SongRepository) *SongService {
	return &SongService{songs: songs}
}

// ImportCSV parses a catalog CSV (header: title,artist,genre,year) and
// inserts the rows for the given user as one batch tagged with a fresh
// import id. Malformed rows are skipped with a warning. Returns the
// number of imported songs.
func (s *SongService) ImportCSV(userId int, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	importId := uuid.NewString()
	songs := make([]*model.Song, 0)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warningf("skipping malformed csv line %d: %v", line+1, err)
			line++
			continue
		}
		line++

		if line == 1 && isHeaderRow(record) {
			continue
		}
		song, ok := parseSongRecord(record)
		if !ok {
			logger.Warningf("skipping incomplete csv line %d", line)
			continue
		}
		song.UserId = userId
		song.ImportId = importId
		songs = append(songs, song)
	}

	if len(songs) == 0 {
		return 0, ErrEmptyUpload
	}

	if err := s.songs.InsertBatch(songs); err != nil {
		return 0, err
	}
	logger.Infof("imported %d songs for user %d, import %s", len(songs), userId, importId)
	return len(songs), nil
}

func isHeaderRow(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "title")
}

func parseSongRecord(record []string) (*model.Song, bool) {
	if len(record) < 2 {
		return nil, false
	}
	title := strings.TrimSpace(record[0])
	artist := strings.TrimSpace(record[1])
	if title == "" || artist == "" {
		return nil, false
	}

	song := &model.Song{
		Title:  title,
		Artist: artist,
	}
	if len(record) > 2 {
		song.Genre = strings.TrimSpace(record[2])
	}
	if len(record) > 3 {
		if year, err := strconv.Atoi(strings.TrimSpace(record[3])); err == nil {
			song.Year = year
		}
	}
	return song, true
}

// GetSong loads one song by id.
func (s *SongService) GetSong(id int) (*model.Song, error) {
	return s.songs.FindByID(id)
}

// GetUserSongs lists all songs uploaded by the given user.
func (s *SongService) GetUserSongs(userId int) ([]*model.Song, error) {
	return s.songs.FindByUser(userId)
}

// CountUserSongs returns how many songs the given user has uploaded.
func (s *SongService) CountUserSongs(userId int) (int64, error) {
	return s.songs.CountByUser(userId)
}
