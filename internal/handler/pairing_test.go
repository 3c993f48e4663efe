package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	apperrors "github.com/crashlink/companion-server/internal/errors"
	"github.com/crashlink/companion-server/internal/model"
)

func TestPairingHandler_Generate(t *testing.T) {
	t.Run("returns code and expiry", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.users.On("FindByID", mock.Anything, ownerID).Return(testUser(ownerID, "Pixel"), nil)
		s.codes.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreatePairingCodeParams) bool {
			return p.UserID == ownerID && p.Location != nil && p.Location.Latitude == 37.5
		})).Return(liveCode("AB12CD"), nil)

		rec := s.do(http.MethodPost, "/pairing/generate", map[string]any{
			"ownerId": ownerID,
			"lat":     37.5,
			"lon":     127.0,
		})

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body struct {
			Code      string `json:"code"`
			ExpiresAt string `json:"expiresAt"`
		}
		decodeBody(t, rec, &body)
		assert.Equal(t, "AB12CD", body.Code)
		_, err := time.Parse(time.RFC3339, body.ExpiresAt)
		assert.NoError(t, err)
	})

	t.Run("missing owner", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})

		rec := s.do(http.MethodPost, "/pairing/generate", map[string]any{})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeMissingRequired)
	})

	t.Run("owner is not a uuid", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})

		rec := s.do(http.MethodPost, "/pairing/generate", map[string]any{"ownerId": "abc"})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeInvalidInput)
	})

	t.Run("latitude without longitude", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})

		rec := s.do(http.MethodPost, "/pairing/generate", map[string]any{"ownerId": ownerID, "lat": 10.0})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("unknown owner", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.users.On("FindByID", mock.Anything, ownerID).Return(nil, nil)

		rec := s.do(http.MethodPost, "/pairing/generate", map[string]any{"ownerId": ownerID})

		assertError(t, rec, http.StatusNotFound, apperrors.ErrCodeNotFound)
	})
}

func TestPairingHandler_Validate(t *testing.T) {
	t.Run("code is single use", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.codes.On("FindByCode", mock.Anything, "AB12CD").Return(liveCode("AB12CD"), nil).Once()
		s.codes.On("FindByCode", mock.Anything, "AB12CD").Return(nil, nil)
		s.users.On("FindByID", mock.Anything, ownerID).Return(testUser(ownerID, "Pixel"), nil)
		s.conns.On("Create", mock.Anything, seekerID, ownerID).Return(true, nil)
		s.codes.On("Delete", mock.Anything, codeID).Return(int64(1), nil)

		req := map[string]string{"code": "ab-12cd", "initiatorUserId": seekerID}

		rec := s.do(http.MethodPost, "/pairing/validate", req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var owner model.User
		decodeBody(t, rec, &owner)
		assert.Equal(t, ownerID, owner.ID)
		assert.Equal(t, "Pixel", owner.DeviceName)

		rec = s.do(http.MethodPost, "/pairing/validate", req)
		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeInvalidPairingCode)

		s.conns.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("expired code", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		pc := liveCode("AB12CD")
		pc.ExpiresAt = time.Now().Add(-time.Minute)
		s.codes.On("FindByCode", mock.Anything, "AB12CD").Return(pc, nil)

		rec := s.do(http.MethodPost, "/pairing/validate", map[string]string{
			"code":            "AB12CD",
			"initiatorUserId": seekerID,
		})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodePairingExpired)
		s.codes.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("own code", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.codes.On("FindByCode", mock.Anything, "AB12CD").Return(liveCode("AB12CD"), nil)

		rec := s.do(http.MethodPost, "/pairing/validate", map[string]string{
			"code":            "AB12CD",
			"initiatorUserId": ownerID,
		})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("malformed code never reaches the store", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})

		rec := s.do(http.MethodPost, "/pairing/validate", map[string]string{
			"code":            "AB!",
			"initiatorUserId": seekerID,
		})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeInvalidPairingCode)
		s.codes.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
	})

	t.Run("missing code", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})

		rec := s.do(http.MethodPost, "/pairing/validate", map[string]string{"initiatorUserId": seekerID})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeMissingRequired)
	})
}

func TestPairingHandler_GetLocation(t *testing.T) {
	t.Run("returns snapshot with owner device", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		pc := liveCode("AB12CD")
		pc.Latitude = floatPtr(37.5665)
		pc.Longitude = floatPtr(126.978)
		pc.Accuracy = floatPtr(12)
		s.codes.On("FindByCode", mock.Anything, "AB12CD").Return(pc, nil)
		s.users.On("FindByID", mock.Anything, ownerID).Return(testUser(ownerID, "Pixel"), nil)

		rec := s.do(http.MethodGet, "/pairing/location/ab12cd", nil)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body map[string]any
		decodeBody(t, rec, &body)
		assert.Equal(t, "AB12CD", body["code"])
		assert.Equal(t, 37.5665, body["lat"])
		assert.Equal(t, 126.978, body["lon"])
		assert.Equal(t, 12.0, body["accuracy"])
		assert.Equal(t, "Pixel", body["deviceName"])
	})

	t.Run("no location stored", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.codes.On("FindByCode", mock.Anything, "AB12CD").Return(liveCode("AB12CD"), nil)

		rec := s.do(http.MethodGet, "/pairing/location/AB12CD", nil)

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeNoLocation)
	})

	t.Run("unknown code", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.codes.On("FindByCode", mock.Anything, "ZZZZZZ").Return(nil, nil)

		rec := s.do(http.MethodGet, "/pairing/location/ZZZZZZ", nil)

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeInvalidPairingCode)
	})
}

func TestPairingHandler_UpdateLocation(t *testing.T) {
	t.Run("replaces snapshot", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.codes.On("UpdateLocation", mock.Anything, "AB12CD", model.Location{
			Latitude:  35.1,
			Longitude: 129.0,
		}).Return(liveCode("AB12CD"), nil)

		rec := s.do(http.MethodPost, "/pairing/update-location/AB12CD", map[string]any{
			"lat": 35.1,
			"lon": 129.0,
		})

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body messageResponse
		decodeBody(t, rec, &body)
		assert.Equal(t, "Location updated", body.Message)
		assert.Equal(t, "AB12CD", body.Code)
	})

	t.Run("coordinates required", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})

		rec := s.do(http.MethodPost, "/pairing/update-location/AB12CD", map[string]any{"lat": 35.1})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeValidation)
	})

	t.Run("latitude out of range", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})

		rec := s.do(http.MethodPost, "/pairing/update-location/AB12CD", map[string]any{"lat": 91.0, "lon": 0.0})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeInvalidInput)
	})

	t.Run("unknown code", func(t *testing.T) {
		s := newTestServer(t, RouterOptions{})
		s.codes.On("UpdateLocation", mock.Anything, "AB12CD", mock.Anything).Return(nil, nil)

		rec := s.do(http.MethodPost, "/pairing/update-location/AB12CD", map[string]any{"lat": 1.0, "lon": 2.0})

		assertError(t, rec, http.StatusBadRequest, apperrors.ErrCodeInvalidPairingCode)
	})
}

func TestPairingHandler_ListActive(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	s.codes.On("FindActiveByUserID", mock.Anything, ownerID).Return([]model.PairingCode{
		*liveCode("AB12CD"),
		*liveCode("XY34ZW"),
	}, nil)

	rec := s.do(http.MethodGet, "/users/"+ownerID+"/pairing-codes", nil)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Count int                 `json:"count"`
		Codes []model.PairingCode `json:"codes"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "AB12CD", body.Codes[0].Code)
}
