package bot

import (
	"fmt"

	"contest-bot/internal/domain/channel"
	"contest-bot/internal/domain/messaging"
	"contest-bot/internal/domain/user"
	usersvc "contest-bot/internal/service/user"
	tglinks "contest-bot/internal/utils/telegram"
)

const btnBack = "⬅️ Back"

func mainMenuKeyboard() *messaging.ReplyKeyboard {
	return &messaging.ReplyKeyboard{
		Rows: [][]messaging.ReplyButton{
			{{Text: MenuContest}},
			{{Text: MenuPrizes}, {Text: MenuPoints}},
			{{Text: MenuRating}, {Text: MenuTerms}},
			{{Text: MenuContact}},
		},
		Persistent: true,
	}
}

func phoneKeyboard() *messaging.ReplyKeyboard {
	return &messaging.ReplyKeyboard{
		Rows:    [][]messaging.ReplyButton{{{Text: ButtonSharePhone, RequestContact: true}}},
		OneTime: true,
	}
}

func removeKeyboard() *messaging.ReplyKeyboard {
	return &messaging.ReplyKeyboard{Remove: true}
}

func data(text string, a Action) messaging.Button {
	return messaging.DataButton(text, a.Data())
}

func plain(text, name string) messaging.Button {
	return data(text, Action{Name: name})
}

// channelsKeyboard lists channels as URL buttons followed by the check
// button.
func channelsKeyboard(chs []channel.Channel) [][]messaging.Button {
	rows := make([][]messaging.Button, 0, len(chs)+1)
	for i, ch := range chs {
		rows = append(rows, []messaging.Button{
			messaging.URLButton(fmt.Sprintf("%d. %s", i+1, ch.Title), tglinks.ChannelURL(ch.Ref, ch.InviteLink)),
		})
	}
	return append(rows, []messaging.Button{plain("✅ I subscribed", ActCheckSubscription)})
}

func shareKeyboard(link string) [][]messaging.Button {
	return [][]messaging.Button{
		{messaging.URLButton("📤 Share with friends", tglinks.ShareURL(link, "🎁 Join the contest and win prizes!"))},
	}
}

func adminMenuKeyboard() [][]messaging.Button {
	return [][]messaging.Button{
		{plain("📊 Statistics", ActAdminStats), plain("👥 Users", ActAdminUsers)},
		{plain("📢 Channels", ActAdminChannels), plain("🎲 Contest", ActAdminContest)},
		{plain("📋 Terms", ActAdminTerms), plain("📞 Contact", ActAdminContact)},
		{plain("💬 Broadcast", ActAdminBroadcast)},
	}
}

func backKeyboard(to string) [][]messaging.Button {
	return [][]messaging.Button{{plain(btnBack, to)}}
}

func cancelKeyboard() [][]messaging.Button {
	return [][]messaging.Button{{plain("❌ Cancel", ActAdminBack)}}
}

func usersKeyboard(p *usersvc.Page) [][]messaging.Button {
	rows := make([][]messaging.Button, 0, len(p.Users)+2)
	for i := range p.Users {
		u := &p.Users[i]
		rows = append(rows, []messaging.Button{data(u.DisplayName(), Action{Name: ActViewUser, ID: u.ID})})
	}
	var nav []messaging.Button
	if p.Page > 0 {
		nav = append(nav, data("⬅️", Action{Name: ActUsersPage, ID: int64(p.Page - 1)}))
	}
	if p.Page+1 < p.Pages {
		nav = append(nav, data("➡️", Action{Name: ActUsersPage, ID: int64(p.Page + 1)}))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows, []messaging.Button{plain(btnBack, ActAdminBack)})
}

func userDetailsKeyboard(u *user.User) [][]messaging.Button {
	toggle := data("🚫 Ban", Action{Name: ActBanUser, ID: u.ID})
	if u.IsBanned {
		toggle = data("✅ Unban", Action{Name: ActUnbanUser, ID: u.ID})
	}
	return [][]messaging.Button{
		{messaging.URLButton("👤 Open profile", tglinks.UserProfileURL(u.ID))},
		{toggle},
		{plain(btnBack, ActAdminUsers)},
	}
}

func adminChannelsKeyboard(chs []channel.Channel) [][]messaging.Button {
	rows := make([][]messaging.Button, 0, len(chs)+2)
	for _, ch := range chs {
		state := "🟢"
		if !ch.IsActive {
			state = "🔴"
		}
		rows = append(rows, []messaging.Button{
			data(fmt.Sprintf("%s %s", state, preview(ch.Title, 15)), Action{Name: ActToggleChannel, ID: ch.ID}),
			data("🗑", Action{Name: ActDeleteChannel, ID: ch.ID}),
		})
	}
	rows = append(rows, []messaging.Button{plain("➕ Add channel", ActAddChannel)})
	return append(rows, []messaging.Button{plain(btnBack, ActAdminBack)})
}

func adminContestKeyboard(hasActive, hasFinished bool) [][]messaging.Button {
	var rows [][]messaging.Button
	if hasActive {
		rows = append(rows,
			[]messaging.Button{plain("✏️ Edit", ActContestEdit)},
			[]messaging.Button{plain("⏹ Stop", ActContestStop)},
		)
	} else {
		rows = append(rows, []messaging.Button{plain("➕ Create contest", ActContestCreate)})
	}
	if hasFinished {
		rows = append(rows, []messaging.Button{plain("🏆 Last results", ActContestResults)})
	}
	return append(rows, []messaging.Button{plain(btnBack, ActAdminBack)})
}

func contestEditKeyboard() [][]messaging.Button {
	return [][]messaging.Button{
		{plain("📌 Title", ActContestEditTitle), plain("📖 Description", ActContestEditDesc)},
		{plain("🎁 Prizes", ActContestEditPrizes), plain("🖼 Image", ActContestEditImage)},
		{plain("📅 End date", ActContestEditDate)},
		{plain(btnBack, ActAdminContest)},
	}
}

func resultsKeyboard(top []user.User) [][]messaging.Button {
	var rows [][]messaging.Button
	for i := 0; i < len(top) && i < 3; i++ {
		rows = append(rows, []messaging.Button{
			messaging.URLButton(medal(i)+" "+top[i].DisplayName(), tglinks.UserProfileURL(top[i].ID)),
		})
	}
	return append(rows, []messaging.Button{plain(btnBack, ActAdminContest)})
}

func settingKeyboard(edit string) [][]messaging.Button {
	return [][]messaging.Button{
		{plain("✏️ Edit", edit)},
		{plain(btnBack, ActAdminBack)},
	}
}

func broadcastPreviewKeyboard(hasButtons bool) [][]messaging.Button {
	rows := [][]messaging.Button{{plain("➕ Add button", ActBroadcastAddButton)}}
	if hasButtons {
		rows = append(rows, []messaging.Button{plain("🗑 Remove buttons", ActBroadcastRmButtons)})
	}
	return append(rows,
		[]messaging.Button{plain("✅ Send", ActBroadcastConfirm)},
		[]messaging.Button{plain("❌ Cancel", ActBroadcastCancel)},
	)
}

func composerCancelKeyboard() [][]messaging.Button {
	return [][]messaging.Button{{plain("❌ Cancel", ActBroadcastCancel)}}
}
