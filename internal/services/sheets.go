package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/config"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
)

const (
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	sheetsAPIBase   = "https://sheets.googleapis.com/v4/spreadsheets"
	sheetsScope     = "https://www.googleapis.com/auth/spreadsheets"
	sheetsAppendTab = "Queue"
)

// SheetsService appends rows to a Google spreadsheet using a
// service-account JWT exchanged for an access token. Direct REST, no
// Google SDK.
type SheetsService struct {
	config     *config.GoogleConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewSheetsService(cfg *config.GoogleConfig) *SheetsService {
	return &SheetsService{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SheetsService) IsConfigured() bool {
	return s.config != nil &&
		s.config.ServiceAccountEmail != "" &&
		s.config.PrivateKeyPEM != "" &&
		s.config.SpreadsheetID != ""
}

// AppendRows appends rows to the queue tab of the configured spreadsheet.
func (s *SheetsService) AppendRows(rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}

	token, err := s.getAccessToken()
	if err != nil {
		return err
	}

	appendURL := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=USER_ENTERED",
		sheetsAPIBase, s.config.SpreadsheetID, sheetsAppendTab)

	payload := map[string]interface{}{"values": rows}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", appendURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return response.NewServerError("sheets request failed").WithDetails(err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return response.NewServerError(fmt.Sprintf("sheets API returned %d", resp.StatusCode)).
			WithDetails(string(respBody))
	}
	return nil
}

// getAccessToken returns a cached access token, minting a fresh one via
// the signed-assertion flow when the cache is empty or near expiry.
func (s *SheetsService) getAccessToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry.Add(-time.Minute)) {
		return s.accessToken, nil
	}

	assertion, err := s.signAssertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	resp, err := s.httpClient.Post(googleTokenURL,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", response.NewServerError("google token exchange failed").WithDetails(err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", response.NewServerError(fmt.Sprintf("google token endpoint returned %d", resp.StatusCode)).
			WithDetails(string(respBody))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return "", response.NewServerError("unparseable google token response").WithDetails(err.Error())
	}

	s.accessToken = tokenResp.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return s.accessToken, nil
}

// signAssertion builds the RS256 service-account assertion.
func (s *SheetsService) signAssertion() (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(s.config.PrivateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("invalid google service account key: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   s.config.ServiceAccountEmail,
		"scope": sheetsScope,
		"aud":   googleTokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(key)
}
