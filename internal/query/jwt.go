package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/huntdream/jsoncrack/internal/errors"
	"github.com/huntdream/jsoncrack/internal/format"
	"github.com/huntdream/jsoncrack/internal/models"
	"github.com/huntdream/jsoncrack/internal/parser"
)

// DecodeJWT splits a JSON Web Token into a document with its header,
// payload and signature. The signature is not verified. Header and payload
// keep the member order of the token. When the payload carries an "exp"
// claim the document also tells when the token expires and whether it
// already has at now.
func DecodeJWT(token string, now time.Time) (*models.Value, error) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		return nil, errors.NewInputError("no token given", errors.ErrNoInput)
	}

	p := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, parts, err := p.ParseUnverified(token, claims)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot decode token: %v", err), errors.ErrInvalidToken)
	}

	header, err := segment(p, parts[0], "header")
	if err != nil {
		return nil, err
	}
	payload, err := segment(p, parts[1], "payload")
	if err != nil {
		return nil, err
	}

	doc := models.Object(
		models.Member{Key: "header", Value: header},
		models.Member{Key: "payload", Value: payload},
		models.Member{Key: "signature", Value: models.String(parts[2])},
	)
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot decode token: %v", err), errors.ErrInvalidToken)
	}
	if exp != nil {
		doc.Set("expires", models.String(exp.UTC().Format(time.RFC3339)))
		doc.Set("expired", models.Bool(!now.Before(exp.Time)))
	}
	return doc, nil
}

func segment(p *jwt.Parser, seg, name string) (*models.Value, error) {
	raw, err := p.DecodeSegment(seg)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot decode token %s: %v", name, err), errors.ErrInvalidToken)
	}
	v, err := parser.Parse(string(raw), format.JSON)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("token %s is not JSON", name), errors.ErrInvalidToken)
	}
	return v, nil
}
