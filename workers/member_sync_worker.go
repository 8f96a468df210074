// workers/member_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"esg-engagement/models"
)

// RemoteProfile matches a profile record from the identity sync service.
type RemoteProfile struct {
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         *string   `json:"first_name,omitempty"`
	LastName          *string   `json:"last_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	StudentID         *string   `json:"student_id,omitempty"`
	Faculty           *string   `json:"faculty,omitempty"`
	AccountStatus     string    `json:"account_status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// GetProfileChangesResponse is the top-level structure of the sync service response.
type GetProfileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// DisplayName prefers the full name, falling back to the username.
func (p RemoteProfile) DisplayName() string {
	var parts []string
	for _, s := range []*string{p.FirstName, p.LastName} {
		if s != nil && strings.TrimSpace(*s) != "" {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return p.Username
}

// Member maps the profile onto a member row. Score columns stay zero; the
// upsert never touches them.
func (p RemoteProfile) Member() models.Member {
	return models.Member{
		ID:          p.ExternalID,
		DisplayName: p.DisplayName(),
		Email:       p.Email,
		StudentID:   p.StudentID,
		Faculty:     p.Faculty,
		AvatarURL:   p.ProfilePictureURL,
		JoinedAt:    p.CreatedAt.UTC(),
		IsActive:    p.AccountStatus == "" || p.AccountStatus == "active",
	}
}

// profileColumns are the only columns a sync may overwrite.
var profileColumns = []string{"display_name", "email", "student_id", "faculty", "avatar_url", "is_active", "updated_at"}

type MemberSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/profiles"
	serviceToken string
	httpClient   *http.Client
}

func NewMemberSyncWorker(db *gorm.DB, httpClient *http.Client, syncServiceBaseURL, serviceToken string) *MemberSyncWorker {
	return &MemberSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: "/api/v1/public/profiles",
		serviceToken: serviceToken,
		httpClient:   httpClient,
	}
}

func (w *MemberSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Member Sync Worker (sync-service → members)…")
	go w.run(ctx)
}

func (w *MemberSyncWorker) run(ctx context.Context) {
	// Initial sync from the beginning of time
	watermark, err := w.syncBatch(ctx, time.Time{})
	if err != nil {
		log.Printf("⚠️ Initial member sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if watermark, err = w.syncBatch(ctx, watermark); err != nil {
				log.Printf("❌ Member sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Member Sync Worker stopped")
			return
		}
	}
}

// nextWatermark is the since value for the next poll. It follows the remote
// updated_at clock, never local member timestamps, and does not move back.
// Profiles without updated_at fall back to the time the poll was sent.
func nextWatermark(since, polledAt time.Time, profiles []RemoteProfile) time.Time {
	next := since
	var stamped bool
	for _, p := range profiles {
		if p.UpdatedAt.IsZero() {
			continue
		}
		stamped = true
		if p.UpdatedAt.After(next) {
			next = p.UpdatedAt
		}
	}
	if !stamped && polledAt.After(next) {
		next = polledAt
	}
	return next.UTC()
}

// FetchProfiles returns profiles changed since the given time.
func (w *MemberSyncWorker) FetchProfiles(ctx context.Context, since time.Time) ([]RemoteProfile, error) {
	var response GetProfileChangesResponse
	if err := getJSON(ctx, w.httpClient, w.baseURL, w.endpointPath, w.serviceToken, since, &response); err != nil {
		return nil, err
	}
	return response.Users, nil
}

// syncBatch upserts profiles changed since the watermark and returns the
// next one. The watermark only moves when every upsert succeeded, so a
// failed batch is fetched again.
func (w *MemberSyncWorker) syncBatch(ctx context.Context, since time.Time) (time.Time, error) {
	polledAt := time.Now().UTC()
	profiles, err := w.FetchProfiles(ctx, since)
	if err != nil {
		return since, err
	}
	if len(profiles) == 0 {
		log.Printf("[SYNC] ✅ No profile changes since %s", since.UTC().Format(time.RFC3339))
		return since, nil
	}

	var upsertCount, skipped, failed int
	for _, remote := range profiles {
		if strings.TrimSpace(remote.ExternalID) == "" {
			skipped++
			continue
		}
		member := remote.Member()
		if err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(profileColumns),
		}).Create(&member).Error; err != nil {
			failed++
			log.Printf("[SYNC] ⚠️ Failed to upsert member (external_id=%q): %v", remote.ExternalID, err)
			continue
		}
		upsertCount++
	}
	log.Printf("[SYNC] ✅ Synced %d profile(s) (%d upserted, %d skipped, %d errors)", len(profiles), upsertCount, skipped, failed)
	if failed > 0 {
		return since, nil
	}
	return nextWatermark(since, polledAt, profiles), nil
}

// getJSON performs an authenticated GET {base}{path}?since=… and decodes the body into out.
func getJSON(ctx context.Context, client *http.Client, baseURL, path, token string, since time.Time, out any) error {
	base, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base sync service URL '%s': %w", baseURL, err)
	}
	endpointURL := base.JoinPath(path)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", token)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sync service non-200 response: %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return nil
}
