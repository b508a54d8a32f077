// Package handlers maps REST requests onto the application services.
package handlers

import (
	"net/http"
	"strconv"

	"chatapi/pkg/common"
	apperrors "chatapi/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies; message content can be long.
const maxBodyBytes = 1 << 20

// base carries what every handler needs to answer a request.
type base struct {
	errs   *apperrors.ErrorHandler
	logger *zap.Logger
}

// decode parses the JSON body into v, writing the error response itself
// when it fails.
func (b base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		b.errs.Handle(w, r, err)
		return false
	}
	return true
}

func (b base) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}, err error) {
	if err != nil {
		b.errs.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, data)
}

// cursor reads nextToken, writing the error response when it is malformed.
func (b base) cursor(w http.ResponseWriter, r *http.Request) (string, bool) {
	cursor, err := common.ExtractCursor(r)
	if err != nil {
		b.errs.Handle(w, r, err)
		return "", false
	}
	return cursor, true
}

// optionalBool parses an optional boolean query parameter.
func optionalBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(name + " must be true or false")
	}
	return &v, nil
}

// ownerParam is the optional userId an administrator may act on behalf of.
func ownerParam(r *http.Request) string {
	return r.URL.Query().Get("userId")
}
