package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
)

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response err=%v", err)
	}
}

// WriteError writes {"error": message} with the status mapped from err.
// Internal causes are logged, not returned.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		WriteJSON(w, status, map[string]string{
			"error": fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return
	}
	if status == http.StatusInternalServerError {
		log.Printf("request failed method=%s path=%s request_id=%s err=%v",
			r.Method, r.URL.Path, r.Header.Get("X-Request-ID"), err)
	}
	WriteJSON(w, status, map[string]string{"error": apperrors.PublicMessage(err)})
}

// maxJSONBody caps request bodies on JSON endpoints.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidArgument("request body is empty")
		}
		return apperrors.InvalidArgument("invalid JSON body: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidArgument(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return &id, nil
}

// orgParam reads organization_id, which superadmins use to pick a tenant.
func orgParam(r *http.Request) (int64, error) {
	id, err := queryID(r, "organization_id")
	if err != nil || id == nil {
		return 0, err
	}
	return *id, nil
}

// bodyOrg merges an organization_id sent in the body with the query value.
func bodyOrg(query, body int64) (int64, error) {
	switch {
	case body == 0:
		return query, nil
	case body < 0:
		return 0, apperrors.InvalidArgument(fmt.Sprintf("invalid organization_id %d", body))
	case query != 0 && query != body:
		return 0, apperrors.InvalidArgument("organization_id in query and body differ")
	}
	return body, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidArgument(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return &b, nil
}

func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return auth.Principal{}, apperrors.Unauthenticated("authentication required")
	}
	return p, nil
}
