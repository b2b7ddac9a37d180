package middleware

import (
	"VisionGuide/pkg/handlerUtil"
	jwtPkg "VisionGuide/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const unauthorizedMessage = "Unauthorized, access token invalid or expired"

func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)
	fields := logrus.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"method":     ctx.Method(),
		"client_ip":  ctx.IP(),
	}

	token, err := jwtPkg.VerifyTokenHeader(ctx, jwtPkg.AccessTokenSecret)
	if err != nil {
		m.log.WithFields(fields).WithError(err).Warn("Token verification failed")
		return handlerUtil.New(m.log).HandleUnauthorized(ctx, requestID, unauthorizedMessage)
	}

	client, err := jwtPkg.ClientFromClaims(token)
	if err != nil {
		m.log.WithFields(fields).WithError(err).Warn("Token claims check")
		return handlerUtil.New(m.log).HandleUnauthorized(ctx, requestID, unauthorizedMessage)
	}

	jwtPkg.SetClient(ctx, client)

	fields["client_id"] = client.ID
	m.log.WithFields(fields).Debug("Authentication successful")
	return ctx.Next()
}
