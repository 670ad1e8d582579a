package handlers

import (
	"bytes"
	"context"
	"lawconnect/db"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"lawconnect/templates/partials"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

// MessagesHandler renders the messaging page. With :id the thread is
// selected and its messages loaded.
func MessagesHandler(c echo.Context) error {
	user := mustUser(c)
	prefix := area(c)
	data := pages.MessagesPage{
		Shell: shell(c, "Messages", "messages"),
		Error: c.QueryParam("error"),
	}

	threads, err := services.ListThreads(db.DB, user)
	if err != nil {
		log.Printf("[WARNING] list threads for %s: %v", user.ID, err)
	}
	data.Threads = partials.ThreadList{Threads: threads, ActiveID: c.Param("id"), Area: prefix}
	data.Contacts = contacts(user)

	if id := c.Param("id"); id != "" {
		thread, err := services.GetThreadForUser(db.DB, user, id)
		if err != nil {
			return pageError(c, err)
		}
		data.Thread = thread
		data.Messages = messageList(user, thread.ID, prefix)
		// reading the thread cleared unread messages
		data.UnreadMessages, _ = services.UnreadMessageCount(db.DB, user.ID)
	}
	return renderPage(c, "messages", data)
}

// MessageListHandler returns the message pane of a thread. Fetch failures
// render an empty list.
func MessageListHandler(c echo.Context) error {
	user := mustUser(c)
	return render(c, http.StatusOK, partials.MessageListView(messageList(user, c.Param("id"), area(c))))
}

func messageList(user *models.User, threadID, prefix string) partials.MessageList {
	messages, err := services.ListMessages(db.DB, user, threadID)
	if err != nil {
		log.Printf("[WARNING] list messages of %s for %s: %v", threadID, user.ID, err)
	}
	return partials.MessageList{ThreadID: threadID, Messages: messages, ViewerID: user.ID, Area: prefix}
}

// contacts are the users the current user shares an accepted case with
func contacts(user *models.User) []models.User {
	var cases []models.Case
	var err error
	if user.IsLawyer() {
		cases, err = services.ListAssignedCases(db.DB, user.ID, "")
	} else {
		cases, err = services.ListCasesForUser(db.DB, user, services.ListFilter{})
	}
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []models.User
	for _, k := range cases {
		if !k.IsAccepted() {
			continue
		}
		other := k.Client
		if user.IsClient() {
			other = k.Lawyer
		}
		if other == nil || seen[other.ID] {
			continue
		}
		seen[other.ID] = true
		out = append(out, *other)
	}
	return out
}

// StartThreadHandler opens the conversation with another user
func StartThreadHandler(c echo.Context) error {
	thread, _, err := services.StartThread(db.DB, mustUser(c), c.FormValue("user_id"))
	if err != nil {
		return fail(c, err, area(c)+"/messages")
	}
	return done(c, area(c)+"/messages/"+thread.ID)
}

// SendMessageHandler stores the message and returns it rendered, so the
// sender sees it immediately.
func SendMessageHandler(c echo.Context) error {
	user := mustUser(c)
	msg, err := services.SendMessage(db.DB, user, c.Param("id"), c.FormValue("content"))
	if err != nil {
		return fail(c, err, area(c)+"/messages/"+c.Param("id"))
	}
	if !isHTMX(c) {
		return done(c, area(c)+"/messages/"+msg.ThreadID)
	}
	return render(c, http.StatusOK, partials.MessageItemView(partials.MessageItem{Message: *msg, ViewerID: user.ID}))
}

// wsFrame is what the browser receives for each pushed message
type wsFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	HTML    string          `json:"html"`
	Message *models.Message `json:"message"`
}

// ThreadSocketHandler pushes new messages of a thread to a participant
func ThreadSocketHandler(c echo.Context) error {
	user := mustUser(c)
	thread, err := services.GetThreadForUser(db.DB, user, c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return serveSocket(c, user.ID, services.ThreadTopic(thread.ID), func(ctx context.Context, conn *websocket.Conn, ev services.Event) error {
		msg, ok := ev.Payload.(*models.Message)
		if ev.Type != services.EventMessage || !ok {
			return nil
		}
		return pushMessage(ctx, conn, msg, user.ID)
	})
}

func pushMessage(ctx context.Context, conn *websocket.Conn, msg *models.Message, viewerID string) error {
	var buf bytes.Buffer
	if err := partials.MessageItemView(partials.MessageItem{Message: *msg, ViewerID: viewerID}).Render(ctx, &buf); err != nil {
		return err
	}
	return writeFrame(ctx, conn, wsFrame{Type: services.EventMessage, ID: msg.ID, HTML: buf.String(), Message: msg})
}

// API

func APIListThreadsHandler(c echo.Context) error {
	threads, err := services.ListThreads(db.DB, mustUser(c))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, threads)
}

// APIStartThreadHandler takes {"user": id}. 201 when a thread was created.
func APIStartThreadHandler(c echo.Context) error {
	var body struct {
		User string `json:"user" form:"user"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	thread, created, err := services.StartThread(db.DB, mustUser(c), body.User)
	if err != nil {
		return apiError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, thread)
}

// APIListMessagesHandler lists messages of ?thread=
func APIListMessagesHandler(c echo.Context) error {
	threadID := c.QueryParam("thread")
	if threadID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "thread is required")
	}
	messages, err := services.ListMessages(db.DB, mustUser(c), threadID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, messages)
}

func APISendMessageHandler(c echo.Context) error {
	var body struct {
		Thread  string `json:"thread" form:"thread"`
		Content string `json:"content" form:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	msg, err := services.SendMessage(db.DB, mustUser(c), body.Thread, body.Content)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, msg)
}

