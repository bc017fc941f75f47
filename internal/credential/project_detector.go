package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GCPProject is a Google Cloud project accessible by a GeminiCLI
// account's access token.
type GCPProject struct {
	ProjectID     string `json:"projectId"`
	ProjectNumber string `json:"projectNumber"`
	Name          string `json:"name"`
	State         string `json:"lifecycleState"`
}

// ListGCPProjects enumerates the Cloud Resource Manager projects an
// access token can see. GeminiCLI accounts use this to resolve the
// project_id(s) field when a credential import omits it.
func (m *Manager) ListGCPProjects(ctx context.Context, accessToken string) ([]GCPProject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://cloudresourcemanager.googleapis.com/v1/projects", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("credential: list gcp projects: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credential: list gcp projects: status %d: %s", resp.StatusCode, string(body))
	}
	var result struct {
		Projects []GCPProject `json:"projects"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("credential: decode gcp projects: %w", err)
	}
	return result.Projects, nil
}

// EnableGCPAPI enables a single Cloud API for projectID, retrying with a
// short linear backoff since this runs once per new account, not on the
// request hot path.
func (m *Manager) EnableGCPAPI(ctx context.Context, accessToken, projectID, serviceName string) error {
	url := fmt.Sprintf("https://serviceusage.googleapis.com/v1/projects/%s/services/%s:enable", projectID, serviceName)
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		resp, err := m.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(1+attempt) * time.Second)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		lastErr = fmt.Errorf("status %d", resp.StatusCode)
		time.Sleep(time.Duration(1+attempt) * time.Second)
	}
	return fmt.Errorf("credential: enable api %s for %s: %w", serviceName, projectID, lastErr)
}
