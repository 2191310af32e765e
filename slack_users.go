package main

import (
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// resolveUserByHandle resolves a feedback recipient from either a raw
// Slack user ID (from a rendered <@U...> mention) or a username/display
// name typed as plain text.
func resolveUserByHandle(api *slack.Client, handle string, isID bool) (*slack.User, error) {
	if isID || isLikelySlackID(handle) {
		return api.GetUserInfo(handle)
	}

	users, err := api.GetUsers()
	if err != nil {
		log.Printf("resolve handle %q: get users error: %v", handle, err)
		return nil, err
	}

	key := strings.ToLower(strings.TrimSpace(handle))
	for i := range users {
		user := &users[i]
		for _, name := range []string{user.Name, user.RealName, user.Profile.DisplayName} {
			if strings.ToLower(strings.TrimSpace(name)) == key {
				return user, nil
			}
		}
	}
	return nil, nil
}

func isLikelySlackID(val string) bool {
	if len(val) < 9 {
		return false
	}
	for i, r := range val {
		if i == 0 {
			if r != 'U' && r != 'W' {
				return false
			}
			continue
		}
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
