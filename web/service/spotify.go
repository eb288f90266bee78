package service

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"songvault/logger"
	"songvault/util/common"

	"github.com/goccy/go-json"
	"go.uber.org/atomic"
)

const (
	spotifyTokenURL  = "https://accounts.spotify.com/api/token"
	spotifySearchURL = "https://api.spotify.com/v1/search"
)

type spotifyToken struct {
	accessToken string
	expiresAt   time.Time
}

type spotifyTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []struct {
			Id string `json:"id"`
		} `json:"items"`
	} `json:"tracks"`
}

// SpotifyService looks up track ids for uploaded songs so the song page
// can embed a player. Lookups are best effort: when disabled, not
// configured or failing, callers get an empty id and render without the
// embed.
type SpotifyService struct {
	settingService SettingService

	client *http.Client
	token  atomic.Pointer[spotifyToken]

	// overridable for tests
	tokenURL  string
	searchURL string
}

func NewSpotifyService() *SpotifyService {
	return &SpotifyService{
		client:    &http.Client{Timeout: 10 * time.Second},
		tokenURL:  spotifyTokenURL,
		searchURL: spotifySearchURL,
	}
}

// FindTrackId searches for a track by title and artist and returns its
// Spotify id, or an empty string when nothing could be resolved.
func (s *SpotifyService) FindTrackId(title, artist string) string {
	enabled, err := s.settingService.GetSpotifyEnable()
	if err != nil || !enabled {
		return ""
	}

	token, err := s.getToken()
	if err != nil {
		logger.Warning("spotify token lookup failed:", err)
		return ""
	}

	query := url.Values{}
	query.Set("q", fmt.Sprintf("track:%s artist:%s", title, artist))
	query.Set("type", "track")
	query.Set("limit", "1")

	req, err := http.NewRequest("GET", s.searchURL+"?"+query.Encode(), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warning("spotify search failed:", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warningf("spotify search returned status %d", resp.StatusCode)
		return ""
	}

	var result spotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Warning("spotify search decode failed:", err)
		return ""
	}
	if len(result.Tracks.Items) == 0 {
		return ""
	}
	return result.Tracks.Items[0].Id
}

// getToken returns a cached client-credentials token, refreshing it
// shortly before expiry.
func (s *SpotifyService) getToken() (string, error) {
	if cached := s.token.Load(); cached != nil && time.Now().Before(cached.expiresAt) {
		return cached.accessToken, nil
	}

	clientId, err := s.settingService.GetSpotifyClientId()
	if err != nil {
		return "", err
	}
	clientSecret, err := s.settingService.GetSpotifyClientSecret()
	if err != nil {
		return "", err
	}
	if clientId == "" || clientSecret == "" {
		return "", common.NewError("spotify credentials are not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequest("POST", s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(clientId, clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", common.NewErrorf("spotify token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp spotifyTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}
	if tokenResp.AccessToken == "" {
		return "", common.NewError("spotify token response is empty")
	}

	token := &spotifyToken{
		accessToken: tokenResp.AccessToken,
		// refresh one minute early
		expiresAt: time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - time.Minute),
	}
	s.token.Store(token)
	return token.accessToken, nil
}
