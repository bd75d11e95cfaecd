// Command vh is a CLI client for the vidhub REST API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `vh CLI
Usage:
  vh -addr URL <cmd> [args]

Commands:
  version
  register   -u <username> -e <email> -name <full name> -p <password> -avatar <file> [-cover <file>]
  login      -u <username|email> -p <password>        (saves tokens)
  refresh                                             (rotates saved refresh token)
  logout
  me
  channel    <username>
  subscribe  -c <channel id>                          (toggles)
  like       -v <video id>                            (toggles)
  history
  videos     [-q <search>] [-owner <id>] [-page N] [-limit N]
  publish    -title <t> -desc <d> -file <video> -thumb <image> [-duration secs]
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the REST API.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, *addr, cmd, args); err != nil {
		if errors.Is(err, errUsage) {
			usage()
		}
		fail(err)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, addr, cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Printf("vh %s (%s)\n", version, buildDate)
		return nil

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		e := fs.String("e", "", "email")
		name := fs.String("name", "", "full name")
		p := fs.String("p", "", "password")
		avatar := fs.String("avatar", "", "avatar image")
		cover := fs.String("cover", "", "cover image")
		_ = fs.Parse(args)
		if *u == "" || *e == "" || *p == "" || *avatar == "" {
			return errors.New("need -u -e -p -avatar")
		}
		var out json.RawMessage
		err := newClient(addr, "").upload(ctx, http.MethodPost, "/users/register",
			map[string]string{"username": *u, "email": *e, "fullName": *name, "password": *p},
			map[string]string{"avatar": *avatar, "coverImage": *cover},
			&out)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username or email")
		p := fs.String("p", "", "password")
		_ = fs.Parse(args)
		if *u == "" || *p == "" {
			return errors.New("need -u and -p")
		}
		s, err := newClient(addr, "").login(ctx, *u, *p)
		if err != nil {
			return err
		}
		if err := saveSession(s.AccessToken, s.RefreshToken); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	case "refresh":
		tf, err := loadSession()
		if err != nil {
			return err
		}
		if _, err := rotate(ctx, addr, tf); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	case "logout":
		tf, err := loadSession()
		if err == nil && tf.accessValid(time.Now()) {
			// the local session is dropped even if the server call fails
			if err := newClient(addr, tf.AccessToken).call(ctx, http.MethodPost, "/users/logout", nil, nil); err != nil {
				fmt.Fprintln(os.Stderr, "server logout:", err)
			}
		}
		if err := clearSession(); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	case "me":
		return getJSON(ctx, addr, "/users/current-user")

	case "channel":
		if len(args) != 1 {
			return errors.New("need <username>")
		}
		return getJSON(ctx, addr, "/users/c/"+strings.ToLower(args[0]))

	case "history":
		return getJSON(ctx, addr, "/users/history")

	case "subscribe":
		fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
		ch := fs.String("c", "", "channel id")
		_ = fs.Parse(args)
		if *ch == "" {
			return errors.New("need -c")
		}
		return postJSON(ctx, addr, "/subscriptions/c/"+*ch)

	case "like":
		fs := flag.NewFlagSet("like", flag.ExitOnError)
		v := fs.String("v", "", "video id")
		_ = fs.Parse(args)
		if *v == "" {
			return errors.New("need -v")
		}
		return postJSON(ctx, addr, "/likes/toggle/v/"+*v)

	case "videos":
		fs := flag.NewFlagSet("videos", flag.ExitOnError)
		q := fs.String("q", "", "search text")
		owner := fs.String("owner", "", "owner id")
		page := fs.Int("page", 0, "page number")
		limit := fs.Int("limit", 0, "page size")
		_ = fs.Parse(args)
		return getJSON(ctx, addr, "/videos"+listQuery(*q, *owner, *page, *limit))

	case "publish":
		fs := flag.NewFlagSet("publish", flag.ExitOnError)
		title := fs.String("title", "", "title")
		desc := fs.String("desc", "", "description")
		file := fs.String("file", "", "video file")
		thumb := fs.String("thumb", "", "thumbnail image")
		dur := fs.Float64("duration", 0, "duration in seconds")
		_ = fs.Parse(args)
		if *title == "" || *desc == "" || *file == "" || *thumb == "" {
			return errors.New("need -title -desc -file -thumb")
		}
		c, err := authed(ctx, addr)
		if err != nil {
			return err
		}
		var out json.RawMessage
		err = c.upload(ctx, http.MethodPost, "/videos",
			map[string]string{"title": *title, "description": *desc, "duration": fmt.Sprint(*dur)},
			map[string]string{"videoFile": *file, "thumbnail": *thumb},
			&out)
		if err != nil {
			return err
		}
		printJSON(out)
		return nil

	default:
		return errUsage
	}
}

// authed returns a client with a usable access token, rotating the refresh token when needed.
func authed(ctx context.Context, addr string) (*apiClient, error) {
	tf, err := loadSession()
	if err != nil {
		return nil, err
	}
	if tf.accessValid(time.Now()) {
		return newClient(addr, tf.AccessToken), nil
	}
	if tf.RefreshToken == "" {
		return nil, errLoginRequired
	}
	access, err := rotate(ctx, addr, tf)
	if err != nil {
		return nil, err
	}
	return newClient(addr, access), nil
}

func rotate(ctx context.Context, addr string, tf tokenFile) (string, error) {
	if tf.RefreshToken == "" {
		return "", errLoginRequired
	}
	s, err := newClient(addr, "").refresh(ctx, tf.RefreshToken)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			_ = clearSession()
			return "", fmt.Errorf("%w: %s", errLoginRequired, apiErr.Message)
		}
		return "", err
	}
	if err := saveSession(s.AccessToken, s.RefreshToken); err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

func getJSON(ctx context.Context, addr, path string) error {
	return authedJSON(ctx, addr, http.MethodGet, path)
}

func postJSON(ctx context.Context, addr, path string) error {
	return authedJSON(ctx, addr, http.MethodPost, path)
}

func authedJSON(ctx context.Context, addr, method, path string) error {
	c, err := authed(ctx, addr)
	if err != nil {
		return err
	}
	var out json.RawMessage
	if err := c.call(ctx, method, path, nil, &out); err != nil {
		return err
	}
	printJSON(out)
	return nil
}

// ---- helpers ----

func fail(err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "api error: status=%d msg=%s\n", apiErr.Status, apiErr.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
