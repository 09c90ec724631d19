package echoapi

import (
	"strconv"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kizito-simon15/montessori-sub000/core"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

const (
	RoleAdmin       = "admin"
	RoleBursar      = "bursar"
	RoleTeacher     = "teacher"
	RoleStorekeeper = "storekeeper"

	tokenContextKey = "staffToken"
	audience        = "Montessori"
)

// Roles lists every role a token may carry.
var Roles = []string{RoleAdmin, RoleBursar, RoleTeacher, RoleStorekeeper}

func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Claims represents the authorization claims transmitted via a JWT.
// The subject is the staff id.
type Claims struct {
	jwt.StandardClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

func NewClaims(stf school.Staff, role string, conf *core.Config) *Claims {
	now := core.NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.FormatInt(stf.ID, 10),
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name: stf.FullName(),
		Role: role,
	}
}

func (c Claims) Actor() core.Actor {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return core.Actor{StaffID: id, Name: c.Name, Role: c.Role}
}

// GenerateToken generates a signed JWT token string representing the staff Claims.
func GenerateToken(claims *Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func jwtConfig(secret string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secret),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// actorMiddleware puts the token's staff member on the request context.
func actorMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		actor := claims.Actor()
		if actor.StaffID <= 0 || !ValidRole(actor.Role) {
			return errUnauthorized
		}
		req := ctx.Request()
		ctx.SetRequest(req.WithContext(core.WithActor(req.Context(), actor)))
		return next(ctx)
	}
}

