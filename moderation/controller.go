package moderation

import (
	"context"
	"errors"
	"fmt"

	"channel-relay/database"
	"channel-relay/models"
	"channel-relay/transport"
	"channel-relay/utils"
)

// Store is the part of the post store the controller drives.
type Store interface {
	Get(ctx context.Context, id int64) (*models.Post, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) error
	SetOwnerMessageIDs(ctx context.Context, id int64, ids []int) error
}

// Options configures a Controller.
type Options struct {
	// Moderator is the chat presentations and notices go to.
	Moderator   models.ChatRef
	ModeratorID int64
	Target      models.ChatRef
	AutoMode    bool
}

// Controller runs the moderation state machine:
// pending -> published | rejected | error.
type Controller struct {
	store     Store
	bot       transport.Bot
	publisher *Publisher
	auth      *utils.Auth
	moderator models.ChatRef
	autoMode  bool
	log       *utils.Logger
}

// NewController wires a controller and its publisher.
func NewController(store Store, bot transport.Bot, opts Options, log *utils.Logger) *Controller {
	return &Controller{
		store:     store,
		bot:       bot,
		publisher: NewPublisher(bot, opts.Moderator, opts.Target, log),
		auth:      utils.NewAuth(opts.ModeratorID),
		moderator: opts.Moderator,
		autoMode:  opts.AutoMode,
		log:       log,
	}
}

// AutoMode reports whether posts skip the moderator.
func (c *Controller) AutoMode() bool {
	return c.autoMode
}

// Submit hands a freshly stored pending post to moderation. In auto mode the
// post is published right away.
func (c *Controller) Submit(ctx context.Context, post *models.Post) error {
	if c.autoMode {
		return c.finish(ctx, post, c.publisher.Publish(ctx, post), false)
	}
	return c.Present(ctx, post)
}

// Present sends the post to the moderator followed by a control message with
// the approve/reject keyboard, and records the ids of everything sent. The
// control message is always the last recorded id. Messages of an earlier
// presentation are retracted once the new one is recorded.
func (c *Controller) Present(ctx context.Context, post *models.Post) error {
	previous := post.OwnerMessageIDs
	ids, err := Deliver(ctx, c.bot, c.moderator, post.Text, post.MediaPaths)
	if err == nil {
		var controlID int
		controlID, err = c.bot.SendText(ctx, c.moderator, controlText(post), &transport.Controls{PostID: post.ID})
		if err == nil {
			ids = append(ids, controlID)
		}
	}
	if err != nil {
		c.retract(ctx, ids)
		c.notify(ctx, noticePresentFailed(post.ID, err))
		return fmt.Errorf("failed to present post %d: %w", post.ID, err)
	}

	if err := c.store.SetOwnerMessageIDs(ctx, post.ID, ids); err != nil {
		return err
	}
	post.OwnerMessageIDs = ids
	c.retract(ctx, previous)
	return nil
}

// HandleCallback applies a pressed approve/reject button. Only the moderator
// may decide, and malformed data never changes state.
func (c *Controller) HandleCallback(ctx context.Context, cb transport.Callback) error {
	if !c.auth.IsModerator(cb.FromID) {
		c.answer(ctx, cb.ID, "⛔ Access denied")
		return fmt.Errorf("callback from %d: %w", cb.FromID, ErrUnauthorized)
	}

	action, id, err := ParseAction(cb.Data)
	if err != nil {
		c.answer(ctx, cb.ID, "⚠️ Unrecognized action")
		c.notify(ctx, noticeMalformed(cb.Data))
		return err
	}

	switch action {
	case ActionApprove:
		c.answer(ctx, cb.ID, fmt.Sprintf("Publishing #%d…", id))
		return c.Approve(ctx, id)
	default:
		c.answer(ctx, cb.ID, fmt.Sprintf("Rejecting #%d…", id))
		return c.Reject(ctx, id)
	}
}

// Approve retracts the control prompt, publishes the post, retracts the
// remaining presentation messages and records the outcome.
func (c *Controller) Approve(ctx context.Context, id int64) error {
	post, err := c.pending(ctx, id)
	if err != nil {
		return err
	}

	owner := []int(post.OwnerMessageIDs)
	if len(owner) > 0 {
		c.retract(ctx, owner[len(owner)-1:])
	}
	pubErr := c.publisher.Publish(ctx, post)
	if len(owner) > 1 {
		c.retract(ctx, owner[:len(owner)-1])
	}
	return c.finish(ctx, post, pubErr, true)
}

// Reject retracts every presentation message and marks the post rejected.
// Nothing is published.
func (c *Controller) Reject(ctx context.Context, id int64) error {
	post, err := c.pending(ctx, id)
	if err != nil {
		return err
	}

	c.retract(ctx, post.OwnerMessageIDs)
	if err := c.store.UpdateStatus(ctx, id, models.StatusRejected); err != nil {
		c.log.Error("Moderation", "Reject", fmt.Sprintf("post %d: %v", id, err))
		return err
	}
	c.log.Info("Moderation", "Reject", fmt.Sprintf("post %d rejected", id))
	c.notify(ctx, noticeRejected(id))
	return nil
}

// pending loads a post and checks that it still awaits a decision. The
// moderator is told when it does not.
func (c *Controller) pending(ctx context.Context, id int64) (*models.Post, error) {
	post, err := c.store.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		c.notify(ctx, noticeNotFound(id))
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if post.Status != models.StatusPending {
		c.notify(ctx, noticeAlreadyDecided(id, post.Status))
		return nil, fmt.Errorf("post %d is %s: %w", id, post.Status, database.ErrStatusConflict)
	}
	return post, nil
}

// finish records the result of a publish attempt. A failure marks the post
// error and is always reported; success is announced only when asked.
func (c *Controller) finish(ctx context.Context, post *models.Post, pubErr error, announce bool) error {
	if pubErr != nil {
		c.log.Error("Moderation", "Publish", fmt.Sprintf("post %d: %v", post.ID, pubErr))
		if err := c.store.UpdateStatus(ctx, post.ID, models.StatusError); err != nil {
			c.log.Error("Moderation", "Publish", fmt.Sprintf("post %d: failed to mark error: %v", post.ID, err))
		} else {
			post.Status = models.StatusError
		}
		c.notify(ctx, noticePublishFailed(post.ID, pubErr))
		return pubErr
	}

	if err := c.store.UpdateStatus(ctx, post.ID, models.StatusPublished); err != nil {
		c.log.Error("Moderation", "Publish", fmt.Sprintf("post %d: failed to mark published: %v", post.ID, err))
		return err
	}
	post.Status = models.StatusPublished
	c.log.Info("Moderation", "Publish", fmt.Sprintf("post %d published", post.ID))
	if announce {
		c.notify(ctx, noticePublished(post.ID))
	}
	return nil
}

// retract deletes moderator-side messages. Failures are logged and dropped.
func (c *Controller) retract(ctx context.Context, ids []int) {
	for _, id := range ids {
		if err := c.bot.Delete(ctx, c.moderator, id); err != nil {
			c.log.Warn("Moderation", "Retract", fmt.Sprintf("failed to delete message %d: %v", id, err))
		}
	}
}

func (c *Controller) notify(ctx context.Context, text string) {
	if _, err := c.bot.SendText(ctx, c.moderator, text, nil); err != nil {
		c.log.Warn("Moderation", "Notify", fmt.Sprintf("failed to notify moderator: %v", err))
	}
}

func (c *Controller) answer(ctx context.Context, callbackID, text string) {
	if err := c.bot.AnswerCallback(ctx, callbackID, text); err != nil {
		c.log.Warn("Moderation", "AnswerCallback", err.Error())
	}
}
