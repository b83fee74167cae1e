package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-api/internal/pkg/jwthelper"
)

// ContextKeyUserID is where VerifyJWT stores the authenticated user's id.
const ContextKeyUserID = "userID"

type Authenticator struct {
	signingKey string
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: signingKey,
	}
}

// VerifyJWT rejects requests without a valid bearer token.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := a.parseBearer(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}

		ctx.Set(ContextKeyUserID, claims.UserID)
		ctx.Next()
	}
}

// OptionalJWT resolves the actor when a valid token is present but lets
// anonymous requests through. Join endpoints use it: an unauthenticated join
// still gets an advisory admission decision.
func (a *Authenticator) OptionalJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if claims, ok := a.parseBearer(ctx); ok {
			ctx.Set(ContextKeyUserID, claims.UserID)
		}

		ctx.Next()
	}
}

func (a *Authenticator) parseBearer(ctx *gin.Context) (*jwthelper.Claims, bool) {
	header := ctx.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims, err := jwthelper.ParseToken(a.signingKey, parts[1])
	if err != nil {
		return nil, false
	}

	return claims, true
}
