package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/field-service-admin/models"
	"github.com/kendall-kelly/field-service-admin/services"
)

// UserRow is one row of the users panel
type UserRow struct {
	User    models.User `json:"user"`
	Actions []string    `json:"actions"`
}

// CollectionView is the panel payload: the fetch state plus rendered rows
type CollectionView[R any] struct {
	Status  string `json:"status"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Rows    []R    `json:"rows"`
}

// userActions lists the actions offered for a user row.
// Decisions are only offered on the pending tab.
func userActions(statusKey string) []string {
	if statusKey == services.UserStatusKeyPending {
		return []string{services.EngineerActionApprove, services.EngineerActionReject}
	}
	return []string{}
}

func userView(state services.FetchState[models.User]) CollectionView[UserRow] {
	rows := make([]UserRow, 0, len(state.Data))
	for _, u := range state.Data {
		rows = append(rows, UserRow{User: u, Actions: userActions(state.StatusKey)})
	}
	return CollectionView[UserRow]{
		Status:  state.StatusKey,
		Loading: state.Loading,
		Error:   state.Error,
		Rows:    rows,
	}
}

// RedirectEngineers handles GET /admin/engineers
func (cc *ConsoleController) RedirectEngineers(c *gin.Context) {
	c.Redirect(http.StatusFound, services.PanelUsers.Path(services.PanelUsers.DefaultStatus()))
}

// ListEngineers handles GET /admin/engineers/:status
func (cc *ConsoleController) ListEngineers(c *gin.Context) {
	state, ok := cc.selectUsers(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    userView(state),
	})
}

// GetEngineer handles GET /admin/engineers/:status/:id
func (cc *ConsoleController) GetEngineer(c *gin.Context) {
	state, ok := cc.selectUsers(c)
	if !ok {
		return
	}

	id := c.Param("id")
	for _, u := range state.Data {
		if u.ID == id {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data": UserRow{
					User:    u,
					Actions: userActions(state.StatusKey),
				},
			})
			return
		}
	}

	respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
}

// DecideEngineer handles POST /admin/engineers/:id/:action.
// It only opens the confirmation prompt; POST /confirm performs the decision.
func (cc *ConsoleController) DecideEngineer(c *gin.Context) {
	if err := cc.console.Actions.RequestEngineerDecision(c.Param("id"), c.Param("action")); err != nil {
		respondActionError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    cc.console.Gate.Prompt(),
	})
}

// selectUsers resolves the status segment and loads the users panel.
// It writes the response itself and returns false when the handler should stop.
func (cc *ConsoleController) selectUsers(c *gin.Context) (services.FetchState[models.User], bool) {
	key, redirect := services.PanelUsers.ResolveStatus(c.Param("status"))
	if redirect {
		c.Redirect(http.StatusFound, services.PanelUsers.Path(key))
		return services.FetchState[models.User]{}, false
	}

	var state services.FetchState[models.User]
	var err error
	if c.Query("refresh") == "true" {
		state, err = cc.console.Users.Reload(c.Request.Context(), key)
	} else {
		state, err = cc.console.Users.Select(c.Request.Context(), key)
	}
	return state, handleFetchError(c, state.Error, err)
}

// handleFetchError lets load failures render inline and responds for everything else
func handleFetchError(c *gin.Context, inlineError string, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, services.ErrSessionExpired) || errors.Is(err, services.ErrNotAuthenticated) {
		respondSessionExpired(c)
		return false
	}
	if inlineError != "" {
		return true
	}
	respondActionError(c, err)
	return false
}
