package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"LinkIM/global"
	"LinkIM/logger"
	mid "LinkIM/middleware"
	midsec "LinkIM/middleware/security"
	chatrest "LinkIM/module/chat"
	chatsvc "LinkIM/module/chat/service"
	userrest "LinkIM/module/user"
	usersvc "LinkIM/module/user/service"
	"LinkIM/service/chat"
	"LinkIM/service/chat/handlers"
	"LinkIM/service/mgo"
	"LinkIM/service/natsx"
	"LinkIM/service/storage"
	"LinkIM/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := global.Load()
	defer logger.Sync()

	ctx := context.Background()
	db, err := mgo.Open(ctx, mgo.Config{URI: cfg.MongoURI, Database: cfg.MongoDB})
	if err != nil {
		logger.Errorf("mongo open failed: %v", err)
		os.Exit(1)
	}
	defer mgo.Close(db)
	if err := mgo.EnsureIndexes(ctx, db); err != nil {
		logger.Warnf("ensure indexes: %v", err)
	}

	users := usersvc.NewUserService(db)
	friends := chatsvc.NewFriendService(db)
	messages := chatsvc.NewMessageService(db)

	jwtOpts := security.DefaultOptions([]byte(cfg.JWTSecret))

	deps := chat.Deps{
		Verifier: verifier{opts: jwtOpts},
		Users:    users,
		Friends:  friends,
		Messages: messages,
	}

	if cfg.RedisAddr != "" {
		mirror, err := storage.NewMirror(storage.Config{Addr: cfg.RedisAddr}, cfg.GatewayID, 2*time.Minute)
		if err != nil {
			logger.Warnf("presence mirror disabled: %v", err)
		} else {
			defer mirror.Close()
			deps.Mirror = mirror
		}
	}
	if cfg.NatsURL != "" {
		sink, err := natsx.Dial(cfg.NatsURL, cfg.GatewayID)
		if err != nil {
			logger.Warnf("event firehose disabled: %v", err)
		} else {
			defer sink.Close()
			deps.Sink = sink
		}
	}

	conns := chat.NewConnManagerWithConf(chat.ManagerConf{
		SweepEvery: cfg.SweepEvery,
		UnauthTTL:  cfg.UnauthTTL,
	}, cfg.GatewayID)
	defer conns.Close()

	srv := chat.NewServer(cfg.GatewayID, conns, deps)
	handlers.RegisterAll(srv.Disp())

	mid.Configure(midsec.Options{JWT: jwtOpts})

	userH := userrest.NewHandler(users, jwtOpts)
	chatH := chatrest.NewHandler(srv, friends, messages, users)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", srv.HandleWS)

	mid.POST(r, "/api/auth/register", userH.Register, mid.RouteOpt{})
	mid.POST(r, "/api/auth/login", userH.Login, mid.RouteOpt{})

	mid.GET(r, "/api/users/me", userH.Me, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/users/search", userH.Search, mid.RouteOpt{IsAuth: true})

	mid.POST(r, "/api/friends/request", chatH.RequestFriend, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/friends/respond", chatH.RespondFriend, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/friends", chatH.ListFriends, mid.RouteOpt{IsAuth: true})
	mid.GET(r, "/api/friends/requests", chatH.PendingRequests, mid.RouteOpt{IsAuth: true})

	mid.GET(r, "/api/chats/:friendId", chatH.History, mid.RouteOpt{IsAuth: true})
	mid.POST(r, "/api/chats", chatH.Send, mid.RouteOpt{IsAuth: true})

	mid.GET(r, "/api/admin/stats", chatH.AdminStats, mid.RouteOpt{IsAdmin: true})

	go func() {
		logger.Infof("[HTTP] gateway %s listening on %s", cfg.GatewayID, cfg.HTTPAddr)
		if err := r.Run(cfg.HTTPAddr); err != nil {
			logger.Errorf("HTTP server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")
}

// verifier adapts the jwt helper to the gateway's TokenVerifier.
type verifier struct {
	opts security.Options
}

func (v verifier) Verify(token string) (string, error) {
	claims, err := security.Verify(v.opts, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
