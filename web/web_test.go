package web

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"regexp"
	"strings"
	"testing"

	"songvault/database"
	"songvault/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csrfTokenPattern = regexp.MustCompile(`name="csrf_token" value="([^"]*)"`)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dbPath := "test.db"
	os.Remove(dbPath)
	require.NoError(t, database.InitDB(dbPath))

	server := NewServer()
	engine, err := server.initRouter()
	require.NoError(t, err)

	ts := httptest.NewServer(engine)
	t.Cleanup(func() {
		ts.Close()
		db, _ := database.GetDB().DB()
		db.Close()
		os.Remove(dbPath)
		os.RemoveAll("uploads")
	})
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

// scrapeCSRFToken pulls the session's CSRF token out of a rendered form.
func scrapeCSRFToken(t *testing.T, client *http.Client, pageURL string) string {
	t.Helper()
	_, body := get(t, client, pageURL)
	m := csrfTokenPattern.FindStringSubmatch(body)
	require.NotNil(t, m, "no csrf token found on %s", pageURL)
	return m[1]
}

// postForm submits a form the way a browser would: fetch the page for
// the CSRF token, then post with the session cookie.
func postForm(t *testing.T, client *http.Client, ts *httptest.Server, path, seedPath string, form url.Values) *http.Response {
	t.Helper()
	form.Set("csrf_token", scrapeCSRFToken(t, client, ts.URL+seedPath))
	resp, err := client.PostForm(ts.URL+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func register(t *testing.T, client *http.Client, ts *httptest.Server, email, password string) *http.Response {
	t.Helper()
	return postForm(t, client, ts, "/register", "/register", url.Values{
		"email":    {email},
		"password": {password},
		"confirm":  {password},
	})
}

func login(t *testing.T, client *http.Client, ts *httptest.Server, email, password string) *http.Response {
	t.Helper()
	return postForm(t, client, ts, "/login", "/login", url.Values{
		"email":    {email},
		"password": {password},
	})
}

func TestMainMenuLinks(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	resp, body := get(t, client, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/register"`)
	assert.Contains(t, body, `href="/login"`)
}

func TestAuthPages(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	resp, _ := get(t, client, ts.URL+"/register")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = get(t, client, ts.URL+"/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSuccessfulRegister(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	resp := register(t, client, ts, "a@a.com", "123La!")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// the user was inserted into the database
	users := database.NewUserRepository(database.GetDB())
	user, err := users.FindByEmail("a@a.com")
	assert.NoError(t, err)
	assert.NotZero(t, user.Id)
}

func TestRegisterBadEmail(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	resp := postForm(t, client, ts, "/register", "/register", url.Values{
		"email":    {"a"},
		"password": {"12345678"},
		"confirm":  {"12345678"},
	})
	// no redirect means validation failed
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterBadPassword(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	resp := postForm(t, client, ts, "/register", "/register", url.Values{
		"email":    {"t@email.com"},
		"password": {"1"},
		"confirm":  {"1"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterPasswordConfirmation(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	form := url.Values{
		"email":      {"t@a.com"},
		"password":   {"12345678"},
		"confirm":    {"87654321"},
		"csrf_token": {scrapeCSRFToken(t, client, ts.URL+"/register")},
	}
	resp, err := client.PostForm(ts.URL+"/register", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Passwords must match")
}

func TestAlreadyRegistered(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")

	resp := register(t, client, ts, "a@a.com", "123La!")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := get(t, client, ts.URL+"/login")
	assert.Contains(t, body, "Already Registered")
}

func TestSuccessfulLogin(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")

	resp := login(t, client, ts, "a@a.com", "123La!")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp2, body := get(t, client, ts.URL+"/dashboard")
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, body, "Welcome")
}

func TestLoginBadEmail(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	form := url.Values{
		"email":      {"bademail"},
		"password":   {"12345678"},
		"csrf_token": {scrapeCSRFToken(t, client, ts.URL+"/login")},
	}
	resp, err := client.PostForm(ts.URL+"/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid username or password")
}

func TestLoginBadPassword(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")

	form := url.Values{
		"email":      {"a@a.com"},
		"password":   {"notthepassword"},
		"csrf_token": {scrapeCSRFToken(t, client, ts.URL+"/login")},
	}
	resp, err := client.PostForm(ts.URL+"/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Invalid username or password")
}

func TestLogout(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")
	login(t, client, ts, "a@a.com", "123La!")

	resp, _ := get(t, client, ts.URL+"/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	// session is gone
	resp, _ = get(t, client, ts.URL+"/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login?next=%2Fdashboard")

	// repeated logout never errors
	resp, _ = get(t, client, ts.URL+"/logout")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestDeniedDashboardAccess(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	resp, _ := get(t, client, ts.URL+"/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login?next=%2Fdashboard")

	_, body := get(t, client, ts.URL+"/login")
	assert.Contains(t, body, "Please log in to access this page.")
}

func TestNextRedirectAfterLogin(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")

	// hit a protected page, get bounced to login with next
	resp, _ := get(t, client, ts.URL+"/dashboard")
	loginURL := resp.Header.Get("Location")
	assert.Contains(t, loginURL, "next=%2Fdashboard")

	resp = postForm(t, client, ts, "/login", loginURL, url.Values{
		"email":    {"a@a.com"},
		"password": {"123La!"},
		"next":     {"/dashboard"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestUnsafeNextIgnored(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")

	resp := postForm(t, client, ts, "/login", "/login", url.Values{
		"email":    {"a@a.com"},
		"password": {"123La!"},
		"next":     {"https://evil.example.com/"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
}

func TestEditProfile(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")
	login(t, client, ts, "a@a.com", "123La!")

	resp := postForm(t, client, ts, "/profile", "/dashboard", url.Values{
		"about": {"hi"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	_, body := get(t, client, ts.URL+"/dashboard")
	assert.Contains(t, body, "You Successfully Updated your Profile")
	assert.Contains(t, body, "hi")

	users := database.NewUserRepository(database.GetDB())
	user, err := users.FindByEmail("a@a.com")
	assert.NoError(t, err)
	assert.Equal(t, "hi", user.About)
}

func TestManageAccount(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")
	login(t, client, ts, "a@a.com", "123La!")

	resp := postForm(t, client, ts, "/account", "/dashboard", url.Values{
		"email":    {"a@gmail.com"},
		"password": {"123La!"},
		"confirm":  {"123La!"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	_, body := get(t, client, ts.URL+"/dashboard")
	assert.Contains(t, body, "You Successfully Updated your Password or Email")

	users := database.NewUserRepository(database.GetDB())
	_, err := users.FindByEmail("a@gmail.com")
	assert.NoError(t, err)
}

func TestSongUploadAndView(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")
	login(t, client, ts, "a@a.com", "123La!")

	token := scrapeCSRFToken(t, client, ts.URL+"/songs/upload")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("csrf_token", token))
	part, err := writer.CreateFormFile("file", "music.csv")
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader("title,artist,genre,year\nMove,TobyMac,Pop,2015\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	resp, err := client.Post(ts.URL+"/songs/upload", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/songs/", resp.Header.Get("Location"))

	resp2, body := get(t, client, ts.URL+"/api/song/1")
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, body, "Song Information")
	assert.Contains(t, body, "Title: Move")
	assert.Contains(t, body, "Artist: TobyMac")

	resp3, jsonBody := get(t, client, ts.URL+"/api/songs")
	assert.Equal(t, http.StatusOK, resp3.StatusCode)
	assert.Contains(t, jsonBody, `"Move"`)
	assert.Contains(t, jsonBody, `"TobyMac"`)
}

func TestCSRFRejectsMissingToken(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	// seed a session first, then post without the token
	get(t, client, ts.URL+"/register")
	resp, err := client.PostForm(ts.URL+"/register", url.Values{
		"email":    {"a@a.com"},
		"password": {"123La!"},
		"confirm":  {"123La!"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotFoundPage(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	resp, body := get(t, client, ts.URL+"/no-such-page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Page Not Found")
}

func TestDeletedUserSessionDegradesToAnonymous(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")
	login(t, client, ts, "a@a.com", "123La!")

	// the account vanishes behind a live session cookie
	err := database.GetDB().Where("email = ?", "a@a.com").Delete(&model.User{}).Error
	require.NoError(t, err)

	resp, _ := get(t, client, ts.URL+"/dashboard")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login?next=%2Fdashboard")
}

func TestSongsPageServedWithoutTrailingSlash(t *testing.T) {
	ts := setupTestServer(t)
	client := newClient(t)

	register(t, client, ts, "a@a.com", "123La!")
	login(t, client, ts, "a@a.com", "123La!")

	// the documented path answers directly, no trailing-slash redirect
	resp, _ := get(t, client, ts.URL+"/songs")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
