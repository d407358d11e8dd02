package chat

import (
	"context"
	"time"

	"LinkIM/logger"
)

// Presence notification. The friend set is computed before touching the
// registry, so no collaborator call ever runs under the registry lock.

// AnnounceOnline tells every present friend that userID came online, then
// sends the freshly bound connection one user-status per friend so the
// client gets its initial presence snapshot without polling. Must be
// called after the bind is committed.
func (s *Server) AnnounceOnline(ctx context.Context, userID string, self *WsConn) {
	friendIDs, err := s.friends.AcceptedFriendIDs(ctx, userID)
	if err != nil {
		logger.Errorf("[presence] friend set err user=%s: %v", userID, err)
		friendIDs = nil
	}
	now := time.Now()

	for _, fid := range friendIDs {
		if fc, ok := s.conns.Lookup(fid); ok {
			_ = fc.Emit(EvUserStatus, UserStatusOut{UserID: userID, IsOnline: true, LastSeen: now})
		}
	}
	for _, fid := range friendIDs {
		_ = self.Emit(EvUserStatus, UserStatusOut{
			UserID:   fid,
			IsOnline: s.conns.IsPresent(fid),
			LastSeen: now,
		})
	}

	if err := s.users.SetPresence(ctx, userID, true, now); err != nil {
		logger.Warnf("[presence] set online err user=%s: %v", userID, err)
	}
	if s.mirror != nil {
		if err := s.mirror.Online(ctx, userID); err != nil {
			logger.Warnf("[presence] mirror online err user=%s: %v", userID, err)
		}
	}
	if s.sink != nil {
		s.sink.PresenceChanged(userID, true, now)
	}
}

// AnnounceOffline tells every still-present friend that userID went
// offline. Shared by clean disconnects and sweeper evictions.
func (s *Server) AnnounceOffline(ctx context.Context, userID string) {
	friendIDs, err := s.friends.AcceptedFriendIDs(ctx, userID)
	if err != nil {
		logger.Errorf("[presence] friend set err user=%s: %v", userID, err)
		friendIDs = nil
	}
	now := time.Now()

	for _, fid := range friendIDs {
		if fc, ok := s.conns.Lookup(fid); ok {
			_ = fc.Emit(EvUserStatus, UserStatusOut{UserID: userID, IsOnline: false, LastSeen: now})
		}
	}

	if err := s.users.SetPresence(ctx, userID, false, now); err != nil {
		logger.Warnf("[presence] set offline err user=%s: %v", userID, err)
	}
	if s.mirror != nil {
		if err := s.mirror.Offline(ctx, userID); err != nil {
			logger.Warnf("[presence] mirror offline err user=%s: %v", userID, err)
		}
	}
	if s.sink != nil {
		s.sink.PresenceChanged(userID, false, now)
	}
}
