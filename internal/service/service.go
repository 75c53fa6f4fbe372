package service

import (
	"github.com/wfunc/mafia-game/internal/config"
	apperrors "github.com/wfunc/mafia-game/internal/errors"
	"github.com/wfunc/mafia-game/internal/game"
	"github.com/wfunc/mafia-game/internal/repository"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Rooms   RoomService
	Machine *game.Machine
}

// NewServices 按游戏配置创建服务集合
func NewServices(repo repository.RoomRepository, cfg *config.GameConfig, log *zap.Logger, notifiers ...Notifier) (*Services, error) {
	policy, err := game.ParseTieBreakPolicy(cfg.TieBreak)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfigValidate, "game.tie_break")
	}

	machine := game.NewMachine(game.Options{
		MinPlayers: cfg.MinPlayers,
		TieBreak:   policy,
		Seed:       cfg.RandomSeed,
	}, log.Named("game"))

	rooms := NewRoomService(repo, machine, RoomOptions{
		CodeLength:      cfg.RoomCodeLength,
		MaxCodeAttempts: cfg.MaxCodeAttempts,
	}, log.Named("room"), notifiers...)

	return &Services{
		Rooms:   rooms,
		Machine: machine,
	}, nil
}
