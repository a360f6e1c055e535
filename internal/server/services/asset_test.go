package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ipfsmarket/internal/common"
	"ipfsmarket/internal/logging"
	"ipfsmarket/internal/server/models"
)

type fakePinner struct {
	fileCID string
	jsonCID string
	fileErr error
	jsonErr error

	pinnedJSON any
	pinnedFile string
}

func (f *fakePinner) PinFile(ctx context.Context, r io.Reader, filename string) (string, error) {
	if f.fileErr != nil {
		return "", f.fileErr
	}
	f.pinnedFile = filename
	return f.fileCID, nil
}

func (f *fakePinner) PinJSON(ctx context.Context, v any) (string, error) {
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	f.pinnedJSON = v
	return f.jsonCID, nil
}

func (f *fakePinner) GatewayURL(cid string) string { return "https://gateway.test/ipfs/" + cid }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func newAssetService(t *testing.T, db *sql.DB, rm *fakeRepoManager, p Pinner, now time.Time) *AssetService {
	t.Helper()
	if p == nil {
		p = &fakePinner{fileCID: "QmFile", jsonCID: "QmMeta"}
	}
	s := NewAssetService(db, rm, p, logging.NewSlogLogger(slog.Default()), testConfig())
	if !now.IsZero() {
		s.now = func() time.Time { return now }
	}
	return s
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return ts
}

// --- Upload ---

func TestUpload_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := &fakeRepoManager{u: newFakeUsersRepo(), a: newFakeAssetsRepo()}
	owner := &models.User{ID: "u1", UserName: "alice", WalletAddress: "0xabc"}
	rm.u.add(owner)

	pinner := &fakePinner{fileCID: "QmFile", jsonCID: "QmMeta"}
	s := newAssetService(t, db, rm, pinner, mustTime(t, "2024-01-01T00:00:00Z"))

	result, err := s.Upload(context.Background(), owner, UploadInput{
		File:        strings.NewReader("bytes"),
		FileName:    "art.png",
		ContentType: "image/png",
		Description: "a drawing",
		Price:       "12",
	})
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}

	if result.FileCID != "QmFile" || result.MetadataCID != "QmMeta" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.FileURL != "https://gateway.test/ipfs/QmFile" {
		t.Fatalf("unexpected file URL: %s", result.FileURL)
	}

	stored := rm.a.byCID["QmFile"]
	if stored == nil {
		t.Fatal("asset not persisted")
	}
	if stored.Available {
		t.Fatal("new asset must not be available")
	}
	if stored.Author != "alice" || stored.WalletAddress != "0xabc" {
		t.Fatalf("wrong attribution: %+v", stored)
	}
	if stored.Name != "art.png" {
		t.Fatalf("name should default to the file name, got %q", stored.Name)
	}
	if stored.CreatedAt != "2024-01-01T00:00:00Z" {
		t.Fatalf("unexpected created_at: %s", stored.CreatedAt)
	}
	// Two calendar months later.
	if stored.Expiry != "2024-03-01T00:00:00Z" {
		t.Fatalf("unexpected expiry: %s", stored.Expiry)
	}
	if got := rm.u.appendedRefs["u1"]; len(got) != 1 || got[0] != "QmFile" {
		t.Fatalf("asset ref not appended to owner: %v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestUpload_PinFailureAbortsBeforePersistence(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), a: newFakeAssetsRepo()}
	owner := &models.User{ID: "u1", UserName: "alice"}
	rm.u.add(owner)

	pinner := &fakePinner{fileErr: errors.New("pinata down")}
	s := newAssetService(t, nil, rm, pinner, time.Time{})

	_, err := s.Upload(context.Background(), owner, UploadInput{
		File: strings.NewReader("bytes"), FileName: "art.png",
	})
	if !errors.Is(err, common.ErrUploadFailed) {
		t.Fatalf("want ErrUploadFailed, got %v", err)
	}
	if len(rm.a.byCID) != 0 || len(rm.u.appendedRefs) != 0 {
		t.Fatal("partial state written after pin failure")
	}
}

func TestUpload_MetadataPinFailure(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), a: newFakeAssetsRepo()}
	owner := &models.User{ID: "u1", UserName: "alice"}
	rm.u.add(owner)

	pinner := &fakePinner{fileCID: "QmFile", jsonErr: errors.New("pinata down")}
	s := newAssetService(t, nil, rm, pinner, time.Time{})

	_, err := s.Upload(context.Background(), owner, UploadInput{
		File: strings.NewReader("bytes"), FileName: "art.png",
	})
	if !errors.Is(err, common.ErrUploadFailed) {
		t.Fatalf("want ErrUploadFailed, got %v", err)
	}
	if len(rm.a.byCID) != 0 {
		t.Fatal("asset persisted despite metadata pin failure")
	}
}

func TestUpload_MissingFile(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), a: newFakeAssetsRepo()}
	s := newAssetService(t, nil, rm, nil, time.Time{})

	_, err := s.Upload(context.Background(), &models.User{ID: "u1"}, UploadInput{})
	if !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("want ErrorValidation, got %v", err)
	}
}

// --- ListForSale ---

func TestListForSale_Success(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["Qm1"] = &models.Asset{CID: "Qm1", Author: "alice", Expiry: "2024-03-01T00:00:00Z"}

	s := newAssetService(t, nil, rm, nil, mustTime(t, "2024-02-15T00:00:00Z"))

	asset, err := s.ListForSale(context.Background(), "Qm1")
	if err != nil {
		t.Fatalf("ListForSale error: %v", err)
	}
	if !asset.Available || !rm.a.byCID["Qm1"].Available {
		t.Fatal("asset not marked available")
	}
}

func TestListForSale_Idempotent(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["Qm1"] = &models.Asset{CID: "Qm1", Expiry: "2024-03-01T00:00:00Z"}

	s := newAssetService(t, nil, rm, nil, mustTime(t, "2024-02-15T00:00:00Z"))

	for i := 0; i < 2; i++ {
		asset, err := s.ListForSale(context.Background(), "Qm1")
		if err != nil {
			t.Fatalf("call %d: ListForSale error: %v", i+1, err)
		}
		if !asset.Available {
			t.Fatalf("call %d: asset not available", i+1)
		}
	}
}

func TestListForSale_Expired(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["Qm1"] = &models.Asset{CID: "Qm1", Expiry: "2024-03-01T00:00:00Z"}

	s := newAssetService(t, nil, rm, nil, mustTime(t, "2024-03-02T00:00:00Z"))

	_, err := s.ListForSale(context.Background(), "Qm1")
	if !errors.Is(err, common.ErrAssetExpired) {
		t.Fatalf("want ErrAssetExpired, got %v", err)
	}
	if rm.a.byCID["Qm1"].Available {
		t.Fatal("expired asset was made available")
	}
}

func TestListForSale_ExpiryBoundary(t *testing.T) {
	// expiry <= now fails: an asset expiring exactly now is already expired.
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["Qm1"] = &models.Asset{CID: "Qm1", Expiry: "2024-03-01T00:00:00Z"}

	s := newAssetService(t, nil, rm, nil, mustTime(t, "2024-03-01T00:00:00Z"))

	_, err := s.ListForSale(context.Background(), "Qm1")
	if !errors.Is(err, common.ErrAssetExpired) {
		t.Fatalf("want ErrAssetExpired, got %v", err)
	}
}

func TestListForSale_NotFound(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	s := newAssetService(t, nil, rm, nil, time.Time{})

	_, err := s.ListForSale(context.Background(), "QmMissing")
	if !errors.Is(err, common.ErrAssetNotFound) {
		t.Fatalf("want ErrAssetNotFound, got %v", err)
	}
}

func TestListForSale_MissingExpiry(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["Qm1"] = &models.Asset{CID: "Qm1"}

	s := newAssetService(t, nil, rm, nil, time.Time{})

	_, err := s.ListForSale(context.Background(), "Qm1")
	if !errors.Is(err, common.ErrExpiryMissing) {
		t.Fatalf("want ErrExpiryMissing, got %v", err)
	}
}

func TestListForSale_InvalidExpiry(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["Qm1"] = &models.Asset{CID: "Qm1", Expiry: "not-a-timestamp"}

	s := newAssetService(t, nil, rm, nil, time.Time{})

	_, err := s.ListForSale(context.Background(), "Qm1")
	if !errors.Is(err, common.ErrExpiryInvalid) {
		t.Fatalf("want ErrExpiryInvalid, got %v", err)
	}
}

// --- listings ---

func TestListAvailable_Empty(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	s := newAssetService(t, nil, rm, nil, time.Time{})

	_, err := s.ListAvailable(context.Background())
	if !errors.Is(err, common.ErrNoAssetsForSale) {
		t.Fatalf("want ErrNoAssetsForSale, got %v", err)
	}
}

func TestListAvailable_StoreFailureIsDistinct(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.listErr = errors.New("db down")
	s := newAssetService(t, nil, rm, nil, time.Time{})

	_, err := s.ListAvailable(context.Background())
	if errors.Is(err, common.ErrNoAssetsForSale) {
		t.Fatal("store failure must not look like an empty marketplace")
	}
	if !errors.Is(err, common.ErrorInternal) {
		t.Fatalf("want ErrorInternal, got %v", err)
	}
}

func TestListAvailable_FiltersExpired(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["QmLive"] = &models.Asset{
		CID: "QmLive", Author: "alice", Description: "fresh",
		Expiry: "2024-06-01T00:00:00Z", Available: true,
	}
	// Flagged available but past expiry: stays flagged in storage, hidden
	// from the listing.
	rm.a.byCID["QmStale"] = &models.Asset{
		CID: "QmStale", Author: "bob",
		Expiry: "2024-01-01T00:00:00Z", Available: true,
	}
	rm.a.byCID["QmBroken"] = &models.Asset{
		CID: "QmBroken", Author: "bob", Expiry: "???", Available: true,
	}

	s := newAssetService(t, nil, rm, nil, mustTime(t, "2024-02-15T00:00:00Z"))

	result, err := s.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("want 1 asset, got %d: %+v", len(result), result)
	}
	got := result[0]
	if got.CID != "QmLive" || got.Author != "alice" || got.Description != "fresh" {
		t.Fatalf("unexpected projection: %+v", got)
	}
	if !rm.a.byCID["QmStale"].Available {
		t.Fatal("filtering must not mutate the stored flag")
	}
}

func TestListByOwner(t *testing.T) {
	rm := &fakeRepoManager{a: newFakeAssetsRepo()}
	rm.a.byCID["Qm1"] = &models.Asset{CID: "Qm1", Author: "alice"}
	rm.a.byCID["Qm2"] = &models.Asset{CID: "Qm2", Author: "bob"}

	s := newAssetService(t, nil, rm, nil, time.Time{})

	result, err := s.ListByOwner(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByOwner error: %v", err)
	}
	if len(result) != 1 || result[0].CID != "Qm1" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

// --- calendar month arithmetic ---

func TestAddMonths(t *testing.T) {
	cases := []struct {
		in     string
		months int
		want   string
	}{
		{"2024-01-01T00:00:00Z", 2, "2024-03-01T00:00:00Z"},
		{"2024-01-15T10:30:00Z", 2, "2024-03-15T10:30:00Z"},
		{"2024-01-31T00:00:00Z", 2, "2024-03-31T00:00:00Z"},
		// Day clamps to the last day of the target month.
		{"2023-12-31T00:00:00Z", 2, "2024-02-29T00:00:00Z"},
		{"2022-12-31T00:00:00Z", 2, "2023-02-28T00:00:00Z"},
		{"2024-03-31T00:00:00Z", 1, "2024-04-30T00:00:00Z"},
		{"2024-11-30T00:00:00Z", 2, "2025-01-30T00:00:00Z"},
	}

	for _, c := range cases {
		got := addMonths(mustTime(t, c.in), c.months).Format(time.RFC3339)
		if got != c.want {
			t.Fatalf("addMonths(%s, %d) = %s, want %s", c.in, c.months, got, c.want)
		}
	}
}
