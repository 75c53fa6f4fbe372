package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager("test-secret-key", "mafia-game", time.Hour)
}

// 测试默认有效期
func (suite *JWTTestSuite) TestNewJWTManager() {
	suite.Equal(time.Hour, suite.manager.Expiry())
	suite.Equal(72*time.Hour, NewJWTManager("secret", "x", 0).Expiry())
}

// 测试签发身份
func (suite *JWTTestSuite) TestNewIdentity() {
	identity, err := suite.manager.NewIdentity("Alice")
	suite.Require().NoError(err)

	_, err = uuid.Parse(identity.PlayerID)
	suite.NoError(err)
	suite.NotEmpty(identity.Token)
	suite.WithinDuration(time.Now().Add(time.Hour), identity.ExpiresAt, 5*time.Second)

	claims, err := suite.manager.ValidateToken(identity.Token)
	suite.Require().NoError(err)
	suite.Equal(identity.PlayerID, claims.PlayerID())
	suite.Equal("Alice", claims.Name)
	suite.Equal("mafia-game", claims.Issuer)
}

// 测试错误密钥
func (suite *JWTTestSuite) TestValidateToken_WrongSecret() {
	token, _, err := NewJWTManager("other-secret", "mafia-game", time.Hour).GenerateToken("p1", "")
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.Error(err)
}

// 测试签发方不一致
func (suite *JWTTestSuite) TestValidateToken_WrongIssuer() {
	token, _, err := NewJWTManager("test-secret-key", "someone-else", time.Hour).GenerateToken("p1", "")
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.Error(err)
}

// 测试过期令牌
func (suite *JWTTestSuite) TestValidateToken_Expired() {
	past := time.Now().Add(-2 * time.Hour)
	claims := &PlayerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(past),
			Issuer:    "mafia-game",
			Subject:   "p1",
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrExpiredToken)
}

// 测试无效格式
func (suite *JWTTestSuite) TestValidateToken_Malformed() {
	_, err := suite.manager.ValidateToken("not.a.token")
	suite.Error(err)
}

func TestJWTTestSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
