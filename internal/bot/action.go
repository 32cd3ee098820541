package bot

import (
	"strconv"
	"strings"
)

// Action is a parsed callback payload: a fixed name plus an optional id.
type Action struct {
	Name string
	ID   int64
}

// Button actions without an id.
const (
	ActCheckSubscription = "check_subscription"
	ActBackToMenu        = "back_to_menu"

	ActAdminBack      = "admin_back"
	ActAdminStats     = "admin_stats"
	ActAdminUsers     = "admin_users"
	ActAdminChannels  = "admin_channels"
	ActAdminContest   = "admin_contest"
	ActAdminTerms     = "admin_terms"
	ActAdminContact   = "admin_contact"
	ActAdminBroadcast = "admin_broadcast"

	ActAddChannel = "add_channel"

	ActContestCreate      = "contest_create"
	ActContestEdit        = "contest_edit"
	ActContestEditTitle   = "contest_edit_title"
	ActContestEditDesc    = "contest_edit_desc"
	ActContestEditPrizes  = "contest_edit_prizes"
	ActContestEditImage   = "contest_edit_image"
	ActContestEditDate    = "contest_edit_date"
	ActContestStop        = "contest_stop"
	ActContestResults     = "contest_results"
	ActEditTerms          = "edit_terms"
	ActEditContact        = "edit_contact"
	ActBroadcastAddButton = "broadcast_add_button"
	ActBroadcastRmButtons = "broadcast_remove_buttons"
	ActBroadcastConfirm   = "broadcast_confirm"
	ActBroadcastCancel    = "broadcast_cancel"
)

// Button actions carrying an id, encoded as "<name>_<id>".
const (
	ActUsersPage     = "users_page"
	ActViewUser      = "view_user"
	ActBanUser       = "ban_user"
	ActUnbanUser     = "unban_user"
	ActToggleChannel = "toggle_channel"
	ActDeleteChannel = "delete_channel"
)

var idActions = []string{ActUsersPage, ActViewUser, ActBanUser, ActUnbanUser, ActToggleChannel, ActDeleteChannel}

// ParseAction decodes callback data. Unknown payloads come back with ok
// false.
func ParseAction(data string) (Action, bool) {
	for _, name := range idActions {
		rest, found := strings.CutPrefix(data, name+"_")
		if !found {
			continue
		}
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id < 0 {
			return Action{}, false
		}
		return Action{Name: name, ID: id}, true
	}
	if _, known := plainActions[data]; known {
		return Action{Name: data}, true
	}
	return Action{}, false
}

// Data encodes a for use as callback data.
func (a Action) Data() string {
	for _, name := range idActions {
		if a.Name == name {
			return name + "_" + strconv.FormatInt(a.ID, 10)
		}
	}
	return a.Name
}

var plainActions = map[string]struct{}{
	ActCheckSubscription:  {},
	ActBackToMenu:         {},
	ActAdminBack:          {},
	ActAdminStats:         {},
	ActAdminUsers:         {},
	ActAdminChannels:      {},
	ActAdminContest:       {},
	ActAdminTerms:         {},
	ActAdminContact:       {},
	ActAdminBroadcast:     {},
	ActAddChannel:         {},
	ActContestCreate:      {},
	ActContestEdit:        {},
	ActContestEditTitle:   {},
	ActContestEditDesc:    {},
	ActContestEditPrizes:  {},
	ActContestEditImage:   {},
	ActContestEditDate:    {},
	ActContestStop:        {},
	ActContestResults:     {},
	ActEditTerms:          {},
	ActEditContact:        {},
	ActBroadcastAddButton: {},
	ActBroadcastRmButtons: {},
	ActBroadcastConfirm:   {},
	ActBroadcastCancel:    {},
}
