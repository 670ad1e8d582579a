package handlers

import (
	"bytes"
	"context"
	"lawconnect/db"
	"lawconnect/middleware"
	"lawconnect/models"
	"lawconnect/services"
	"lawconnect/templates/pages"
	"lawconnect/templates/partials"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

// notificationFrame carries a new notification and the fresh unread count
type notificationFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	HTML   string `json:"html"`
	Unread int64  `json:"unread"`
}

// NotificationSocketHandler pushes new notifications and the unread badge
// count to the signed-in user.
func NotificationSocketHandler(c echo.Context) error {
	user := mustUser(c)
	item := partials.NotificationItem{Area: area(c), CSRF: middleware.GetCSRFToken(c)}
	return serveSocket(c, user.ID, services.UserTopic(user.ID), func(ctx context.Context, conn *websocket.Conn, ev services.Event) error {
		n, ok := ev.Payload.(*models.Notification)
		if ev.Type != services.EventNotification || !ok {
			return nil
		}
		return pushNotification(ctx, conn, item, n, user.ID)
	})
}

func pushNotification(ctx context.Context, conn *websocket.Conn, item partials.NotificationItem, n *models.Notification, userID string) error {
	item.Notification = *n
	var buf bytes.Buffer
	if err := partials.NotificationItemView(item).Render(ctx, &buf); err != nil {
		return err
	}
	unread, err := services.UnreadNotificationCount(db.DB, userID)
	if err != nil {
		log.Printf("[WARNING] unread count for %s: %v", userID, err)
	}
	return writeFrame(ctx, conn, notificationFrame{Type: services.EventNotification, ID: n.ID, HTML: buf.String(), Unread: unread})
}

// NotificationsHandler renders the notification list, ?unread=1 for unread only
func NotificationsHandler(c echo.Context) error {
	user := mustUser(c)
	unreadOnly := c.QueryParam("unread") != ""
	data := pages.NotificationsPage{
		Shell:      shell(c, "Notifications", "notifications"),
		UnreadOnly: unreadOnly,
	}
	notes, err := services.ListNotifications(db.DB, user.ID, unreadOnly)
	if err != nil {
		log.Printf("[WARNING] list notifications for %s: %v", user.ID, err)
	}
	for _, n := range notes {
		data.Items = append(data.Items, partials.NotificationItem{Notification: n, Area: area(c), CSRF: data.CSRF})
	}
	return renderPage(c, "notifications", data)
}

// MarkNotificationReadHandler marks one notification read and returns its
// updated list item
func MarkNotificationReadHandler(c echo.Context) error {
	n, err := services.MarkNotificationRead(db.DB, mustUser(c).ID, c.Param("id"))
	if err != nil {
		return fail(c, err, area(c)+"/notifications")
	}
	if !isHTMX(c) {
		return done(c, area(c)+"/notifications")
	}
	return render(c, http.StatusOK, partials.NotificationItemView(partials.NotificationItem{
		Notification: *n,
		Area:         area(c),
		CSRF:         middleware.GetCSRFToken(c),
	}))
}

func MarkAllNotificationsReadHandler(c echo.Context) error {
	if _, err := services.MarkAllNotificationsRead(db.DB, mustUser(c).ID); err != nil {
		return fail(c, err, area(c)+"/notifications")
	}
	return done(c, area(c)+"/notifications")
}

// DeleteNotificationHandler removes a notification. Returning an empty body
// removes it from the UI (hx-swap="outerHTML").
func DeleteNotificationHandler(c echo.Context) error {
	if err := services.DeleteNotification(db.DB, mustUser(c).ID, c.Param("id")); err != nil {
		return fail(c, err, area(c)+"/notifications")
	}
	if isHTMX(c) {
		return c.String(http.StatusOK, "")
	}
	return done(c, area(c)+"/notifications")
}

// API

// APIListNotificationsHandler lists notifications newest first, ?unread=1 for unread only
func APIListNotificationsHandler(c echo.Context) error {
	user := mustUser(c)
	notes, err := services.ListNotifications(db.DB, user.ID, c.QueryParam("unread") != "")
	if err != nil {
		return apiError(c, err)
	}
	unread, err := services.UnreadNotificationCount(db.DB, user.ID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": notes,
		"unread":        unread,
	})
}

func APIMarkNotificationReadHandler(c echo.Context) error {
	n, err := services.MarkNotificationRead(db.DB, mustUser(c).ID, c.Param("id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func APIMarkAllNotificationsReadHandler(c echo.Context) error {
	count, err := services.MarkAllNotificationsRead(db.DB, mustUser(c).ID)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": count})
}

func APIDeleteNotificationHandler(c echo.Context) error {
	if err := services.DeleteNotification(db.DB, mustUser(c).ID, c.Param("id")); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
