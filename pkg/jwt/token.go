package jwtPkg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"VisionGuide/internal/entity"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
	clientLocalsKey   = "client"
)

// SignClient issues an access token identifying a client.
func SignClient(client entity.Client, expiresIn time.Duration) (string, int64, error) {
	return Sign(map[string]interface{}{
		"id":   client.ID,
		"name": client.Name,
	}, expiresIn)
}

func Sign(data map[string]interface{}, expiresIn time.Duration) (string, int64, error) {
	expiredAt := time.Now().Add(expiresIn).Unix()

	secret := os.Getenv(AccessTokenSecret)
	if secret == "" {
		return "", 0, fmt.Errorf("%s not set", AccessTokenSecret)
	}

	claims := jwt.MapClaims{}
	claims["exp"] = expiredAt
	claims["iat"] = time.Now().Unix()

	for k, v := range data {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		logrus.WithError(err).Error("Failed to sign token")
		return "", 0, err
	}

	return accessToken, expiredAt, nil
}

func VerifyTokenHeader(c *fiber.Ctx, secretEnvKey string) (*jwt.Token, error) {
	header := c.Get("Authorization")
	if header == "" {
		return nil, errors.New("empty Authorization header")
	}

	accessToken, found := strings.CutPrefix(header, "Bearer ")
	accessToken = strings.TrimSpace(accessToken)
	if !found || accessToken == "" {
		return nil, errors.New("invalid Authorization format")
	}

	secret := os.Getenv(secretEnvKey)
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	return token, nil
}

// ClientFromClaims reads the client identity out of verified claims.
func ClientFromClaims(token *jwt.Token) (entity.Client, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Client{}, errors.New("invalid token claims")
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return entity.Client{}, errors.New("token has no client id")
	}
	name, _ := claims["name"].(string)

	return entity.Client{ID: id, Name: name}, nil
}

func SetClient(c *fiber.Ctx, client entity.Client) {
	c.Locals(clientLocalsKey, client)
}

func GetClient(c *fiber.Ctx) (entity.Client, error) {
	client, ok := c.Locals(clientLocalsKey).(entity.Client)
	if !ok {
		return entity.Client{}, fiber.ErrUnauthorized
	}
	return client, nil
}
