// Package service implements the application services behind the
// songvault web handlers.
package service

import (
	"strconv"
	"time"

	"songvault/database"
	"songvault/database/model"
	"songvault/logger"
	"songvault/util/common"
	"songvault/util/random"
)

var defaultValueMap = map[string]string{
	"webListen":           "",
	"webDomain":           "",
	"webPort":             "5000",
	"webBasePath":         "/",
	"secret":              random.Seq(32),
	"sessionMaxAge":       "60",
	"csrfEnable":          "true",
	"timeLocation":        "UTC",
	"spotifyEnable":       "false",
	"spotifyClientId":     "",
	"spotifyClientSecret": "",
}

// SettingService reads and writes key/value application settings,
// falling back to built-in defaults for unset keys.
type SettingService struct{}

func (s *SettingService) getSetting(key string) (*model.Setting, error) {
	db := database.GetDB()
	setting := &model.Setting{}
	err := db.Model(model.Setting{}).Where("key = ?", key).First(setting).Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *SettingService) saveSetting(key string, value string) error {
	setting, err := s.getSetting(key)
	db := database.GetDB()
	if database.IsNotFound(err) {
		return db.Create(&model.Setting{
			Key:   key,
			Value: value,
		}).Error
	} else if err != nil {
		return err
	}
	setting.Value = value
	return db.Save(setting).Error
}

func (s *SettingService) getString(key string) (string, error) {
	setting, err := s.getSetting(key)
	if database.IsNotFound(err) {
		value, ok := defaultValueMap[key]
		if !ok {
			return "", common.NewErrorf("key <%v> not in defaultValueMap", key)
		}
		return value, nil
	} else if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *SettingService) setString(key string, value string) error {
	if _, ok := defaultValueMap[key]; !ok {
		return common.NewErrorf("key <%v> not in defaultValueMap", key)
	}
	return s.saveSetting(key, value)
}

func (s *SettingService) getInt(key string) (int, error) {
	str, err := s.getString(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(str)
}

func (s *SettingService) getBool(key string) (bool, error) {
	str, err := s.getString(key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(str)
}

func (s *SettingService) GetListen() (string, error) {
	return s.getString("webListen")
}

func (s *SettingService) GetWebDomain() (string, error) {
	return s.getString("webDomain")
}

func (s *SettingService) GetPort() (int, error) {
	return s.getInt("webPort")
}

func (s *SettingService) SetPort(port int) error {
	return s.setString("webPort", strconv.Itoa(port))
}

func (s *SettingService) GetBasePath() (string, error) {
	basePath, err := s.getString("webBasePath")
	if err != nil {
		return "", err
	}
	if basePath == "" {
		basePath = "/"
	}
	if basePath[len(basePath)-1] != '/' {
		basePath += "/"
	}
	return basePath, nil
}

// GetSecret returns the cookie-signing secret, persisting the generated
// default on first read so sessions survive restarts.
func (s *SettingService) GetSecret() ([]byte, error) {
	secret, err := s.getString("secret")
	if err != nil {
		return nil, err
	}
	if _, err := s.getSetting("secret"); database.IsNotFound(err) {
		if err := s.saveSetting("secret", secret); err != nil {
			logger.Warning("unable to persist secret:", err)
		}
	}
	return []byte(secret), nil
}

// GetSessionMaxAge returns the session lifetime in minutes.
func (s *SettingService) GetSessionMaxAge() (int, error) {
	return s.getInt("sessionMaxAge")
}

func (s *SettingService) GetCSRFEnable() (bool, error) {
	return s.getBool("csrfEnable")
}

func (s *SettingService) SetCSRFEnable(enable bool) error {
	return s.setString("csrfEnable", strconv.FormatBool(enable))
}

func (s *SettingService) GetTimeLocation() (*time.Location, error) {
	l, err := s.getString("timeLocation")
	if err != nil {
		return nil, err
	}
	location, err := time.LoadLocation(l)
	if err != nil {
		defaultLocation := defaultValueMap["timeLocation"]
		logger.Errorf("invalid time location: %v, using default location: %v", l, defaultLocation)
		return time.LoadLocation(defaultLocation)
	}
	return location, nil
}

func (s *SettingService) GetSpotifyEnable() (bool, error) {
	return s.getBool("spotifyEnable")
}

func (s *SettingService) GetSpotifyClientId() (string, error) {
	return s.getString("spotifyClientId")
}

func (s *SettingService) GetSpotifyClientSecret() (string, error) {
	return s.getString("spotifyClientSecret")
}

// ResetSettings removes all stored settings, reverting to defaults.
func (s *SettingService) ResetSettings() error {
	db := database.GetDB()
	return db.Where("1 = 1").Delete(model.Setting{}).Error
}

// GetAllSetting returns every stored setting, for the CLI show command.
func (s *SettingService) GetAllSetting() ([]*model.Setting, error) {
	db := database.GetDB()
	settings := make([]*model.Setting, 0)
	err := db.Model(model.Setting{}).Find(&settings).Error
	if err != nil {
		return nil, err
	}
	return settings, nil
}
