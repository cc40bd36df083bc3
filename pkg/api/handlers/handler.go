// Package handlers implements the HTTP surface of the workspace API. Every
// read-modify-write goes through the store mutator so a lost CAS race simply
// re-executes the handler body against fresh state.
package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// SafeUser is a user record with the password stripped for responses.
type SafeUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func toSafeUser(u models.User) SafeUser {
	return SafeUser{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name,
		Role:       u.Role,
		Department: u.Department,
	}
}

func toSafeUsers(users []models.User) []SafeUser {
	out := make([]SafeUser, 0, len(users))
	for _, u := range users {
		out = append(out, toSafeUser(u))
	}
	return out
}

func findUser(users []models.User, id string) *models.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}

func findUserByUsername(users []models.User, username string) *models.User {
	for i := range users {
		if users[i].Username == username {
			return &users[i]
		}
	}
	return nil
}

func findLead(doc *store.Document, id string) *models.Lead {
	for i := range doc.Data.Leads {
		if doc.Data.Leads[i].ID == id {
			return &doc.Data.Leads[i]
		}
	}
	return nil
}

// queryInt reads an integer query parameter, clamped to [min, max], with a
// default for missing or unparseable values.
func queryInt(c echo.Context, name string, def, min, max int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
