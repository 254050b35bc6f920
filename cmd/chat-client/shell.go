package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"chatsync/internal/chat"
	"chatsync/internal/common"
	"chatsync/internal/di"
	"chatsync/internal/friends"
	"chatsync/internal/notif"
)

var errQuit = errors.New("quit")

const help = `commands:
  /signup <email> <password>   create an account and sign in
  /login <email> <password>    sign in
  /logout                      sign out
  /users                       list other users
  /add <email>                 send a friend request
  /requests                    list incoming requests
  /accept <n>                  accept request n from /requests
  /decline <n>                 decline request n from /requests
  /friends                     list friends
  /peer <email>                open the conversation with a friend
  /history                     print the open conversation by day
  /status                      show session and notification state
  /mute, /unmute               silence or restore message notifications
  /quit                        exit
anything else is sent to the open conversation`

// shell drives a di.Client from text commands.
type shell struct {
	app *di.Client
	loc *time.Location

	mu      sync.Mutex
	out     io.Writer
	printed map[int64]struct{}
	muted   bool
}

func newShell(app *di.Client, out io.Writer) *shell {
	s := &shell{
		app:     app,
		loc:     time.Local,
		out:     out,
		printed: make(map[int64]struct{}),
	}
	app.Chat.OnChange(s.onConversation)
	return s
}

func (s *shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format+"\n", args...)
}

// onConversation echoes messages that have not been shown yet.
func (s *shell) onConversation(v chat.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range v.Messages {
		if _, seen := s.printed[m.ID]; seen {
			continue
		}
		s.printed[m.ID] = struct{}{}
		fmt.Fprintf(s.out, "[%s] %s: %s\n", chat.ClockLabel(m.CreatedAt, s.loc), s.name(m.SenderID), m.Content)
	}
}

func (s *shell) name(id string) string {
	if email, ok := s.app.Directory.Lookup(id); ok {
		return email
	}
	return friends.UnknownEmail
}

func (s *shell) exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return s.app.Chat.SendMessage(ctx, line)
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "/help":
		s.printf("%s", help)
		return nil
	case "/quit":
		return errQuit
	case "/signup", "/login":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s <email> <password>", cmd)
		}
		return s.signIn(ctx, cmd == "/signup", args[0], args[1])
	case "/logout":
		return s.signOut(ctx)
	case "/users":
		return s.users(ctx)
	case "/add":
		if len(args) != 1 {
			return errors.New("usage: /add <email>")
		}
		return s.add(ctx, args[0])
	case "/requests":
		s.requests()
		return nil
	case "/accept", "/decline":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <n>", cmd)
		}
		return s.answer(ctx, cmd == "/accept", args[0])
	case "/friends":
		s.friends()
		return nil
	case "/peer":
		if len(args) != 1 {
			return errors.New("usage: /peer <email>")
		}
		return s.peer(ctx, args[0])
	case "/history":
		s.history()
		return nil
	case "/status":
		s.status()
		return nil
	case "/mute":
		s.setMuted(true)
		return nil
	case "/unmute":
		s.setMuted(false)
		return nil
	}
	return fmt.Errorf("unknown command %s, try /help", cmd)
}

func (s *shell) signIn(ctx context.Context, create bool, email, password string) error {
	var (
		id  common.Identity
		err error
	)
	if create {
		id, err = s.app.Session.SignUp(ctx, email, password)
	} else {
		id, err = s.app.Session.Login(ctx, email, password)
	}
	if err != nil {
		return err
	}
	s.app.Directory.Remember(id.ID, id.Email)

	if err := s.app.Friends.Start(ctx); err != nil {
		return err
	}
	if err := s.app.Dispatcher.Start(ctx); err != nil {
		return err
	}
	s.printf("signed in as %s", id.Email)
	return nil
}

func (s *shell) signOut(ctx context.Context) error {
	s.app.Session.Logout()
	if err := s.app.Dispatcher.Close(); err != nil {
		return err
	}
	if err := s.app.Chat.SelectPeer(ctx, ""); err != nil {
		return err
	}
	if err := s.app.Friends.Refresh(ctx); err != nil {
		return err
	}
	s.printf("signed out")
	return nil
}

func (s *shell) users(ctx context.Context) error {
	users, err := s.app.Friends.Users(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		s.printf("no other users")
	}
	for _, u := range users {
		s.printf("  %s", u.Email)
	}
	return nil
}

func (s *shell) add(ctx context.Context, email string) error {
	res, err := s.app.Friends.SendRequest(ctx, email)
	if err != nil {
		return err
	}
	if !res.Sent() {
		s.printf("not sent: %s", res.Reason)
		return nil
	}
	s.printf("request sent to %s", common.NormalizeEmail(email))
	return nil
}

func (s *shell) requests() {
	reqs := s.app.Friends.View().Requests
	if len(reqs) == 0 {
		s.printf("no pending requests")
	}
	for i, r := range reqs {
		s.printf("  %d. %s (%s)", i+1, r.SenderEmail, chat.DayLabel(r.CreatedAt, time.Now(), s.loc))
	}
}

func (s *shell) answer(ctx context.Context, accept bool, arg string) error {
	n, err := strconv.Atoi(arg)
	reqs := s.app.Friends.View().Requests
	if err != nil || n < 1 || n > len(reqs) {
		return fmt.Errorf("no request %s, see /requests", arg)
	}
	req := reqs[n-1]

	if !accept {
		if err := s.app.Friends.DeclineRequest(ctx, req.ID); err != nil {
			return err
		}
		s.printf("declined %s", req.SenderEmail)
		return nil
	}

	err = s.app.Friends.AcceptRequest(ctx, req.ID)
	var partial *friends.PartialAcceptError
	if errors.As(err, &partial) {
		s.printf("accepted %s, repair pending", req.SenderEmail)
		return nil
	}
	if err != nil {
		return err
	}
	s.printf("you are now friends with %s", req.SenderEmail)
	return nil
}

func (s *shell) friends() {
	list := s.app.Friends.View().Friends
	if len(list) == 0 {
		s.printf("no friends yet")
	}
	for _, f := range list {
		s.printf("  %s", f.Email)
	}
}

func (s *shell) peer(ctx context.Context, email string) error {
	email = common.NormalizeEmail(email)
	for _, f := range s.app.Friends.View().Friends {
		if f.Email != email {
			continue
		}
		s.mu.Lock()
		s.printed = make(map[int64]struct{})
		s.mu.Unlock()
		s.printf("-- conversation with %s --", email)
		return s.app.Chat.SelectPeer(ctx, f.ID)
	}
	return fmt.Errorf("%s is not a friend", email)
}

func (s *shell) history() {
	v := s.app.Chat.View()
	if v.Peer == "" {
		s.printf("no open conversation, use /peer")
		return
	}
	for _, g := range chat.GroupByDay(v.Messages, time.Now(), s.loc) {
		s.printf("-- %s --", g.Label)
		for _, m := range g.Messages {
			s.printf("[%s] %s: %s", chat.ClockLabel(m.CreatedAt, s.loc), s.name(m.SenderID), m.Content)
		}
	}
	for _, p := range v.Pending {
		s.printf("[sending] %s", p.Content)
	}
}

func (s *shell) status() {
	if id, ok := s.app.Session.Current(); ok {
		s.printf("signed in as %s", id.Email)
	} else {
		s.printf("signed out")
	}
	s.mu.Lock()
	muted := s.muted
	s.mu.Unlock()
	s.printf("notifications: permitted=%t muted=%t", s.app.Dispatcher.Enabled(), muted)
	s.printf("known users: %d", s.app.Directory.Len())
}

// setMuted removes or restores the log sink; other sinks keep delivering.
func (s *shell) setMuted(muted bool) {
	s.mu.Lock()
	changed := s.muted != muted
	s.muted = muted
	s.mu.Unlock()

	if changed {
		sink := notif.NewLogSink(s.app.Log)
		if muted {
			s.app.Notifications.Unregister(sink.Name())
		} else {
			s.app.Notifications.Register(sink)
		}
	}
	if muted {
		s.printf("notifications muted")
	} else {
		s.printf("notifications on")
	}
}
