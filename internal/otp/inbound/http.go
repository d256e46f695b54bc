package inbound

import (
	"context"

	"github.com/vkng1104/otpchain/internal/otp/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Generate(ctx context.Context, in usecase.GenerateInput) (*usecase.GenerateOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
	WindowUpdate(ctx context.Context, in usecase.WindowUpdateInput) (*usecase.WindowUpdateOutput, error)
	Details(ctx context.Context) (*usecase.DetailsOutput, error)

	Blacklist(ctx context.Context, in usecase.BlacklistInput) (*usecase.BlacklistOutput, error)
	Unblacklist(ctx context.Context, in usecase.BlacklistInput) (*usecase.BlacklistOutput, error)
	Reset(ctx context.Context, in usecase.ResetInput) (*usecase.ResetOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Chain lifecycle (need authenticated)
	r.POST("/api/v1/otp/register", end.Register)
	r.POST("/api/v1/otp/generate", end.Generate)
	r.POST("/api/v1/otp/verify", end.Verify)
	r.PUT("/api/v1/otp/window", end.WindowUpdate)
	r.GET("/api/v1/otp/details", end.Details)

	// Moderation (need authenticated & ledger admin role)
	r.POST("/api/v1/otp/users/:id/blacklist", end.Blacklist)
	r.DELETE("/api/v1/otp/users/:id/blacklist", end.Unblacklist)
	r.POST("/api/v1/otp/users/:id/reset", end.Reset)
}
