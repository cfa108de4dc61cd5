package gateway

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"messenger/domain"
	"messenger/errors"
	"messenger/services"

	"github.com/google/uuid"
)

// Status codes carried in replies, mirroring their HTTP equivalents.
const (
	statusOK           = 200
	statusBadRequest   = 400
	statusUnauthorized = 401
	statusForbidden    = 403
	statusNotFound     = 404
	statusInternal     = 500
)

type reply struct {
	Status  int             `json:"status"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func respond(payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return respondErr(err)
	}
	out, _ := json.Marshal(reply{Status: statusOK, Payload: data})
	return out
}

func respondErr(err error) []byte {
	out, _ := json.Marshal(reply{Status: statusOf(err), Error: err.Error()})
	return out
}

func statusOf(err error) int {
	switch {
	case goerrors.Is(err, errors.ErrValidation):
		return statusBadRequest
	case goerrors.Is(err, errors.ErrNotAuthorized):
		return statusUnauthorized
	case goerrors.Is(err, errors.ErrNotAuthenticated):
		return statusForbidden
	case goerrors.Is(err, errors.ErrMessageNotFound),
		goerrors.Is(err, errors.ErrAttachmentNotFound),
		goerrors.Is(err, errors.ErrProfileNotFound):
		return statusNotFound
	default:
		return statusInternal
	}
}

type uploadPayload struct {
	OriginalName string `json:"original_name"`
	Data         []byte `json:"data"`
}

type sendRequest struct {
	Kind   domain.ConversationKind `json:"kind,omitempty"`
	From   domain.Ref              `json:"from"`
	To     domain.Ref              `json:"to"`
	RoomID *int64                  `json:"room_id,omitempty"`
	Body   string                  `json:"body"`
	Upload *uploadPayload          `json:"upload,omitempty"`
}

func (g *Gateway) handleSend(data []byte) []byte {
	var req sendRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return respondErr(errors.ErrValidation)
	}
	cmd := domain.SendMessageCommand{
		Kind:   req.Kind,
		From:   req.From,
		To:     req.To,
		RoomID: req.RoomID,
		Body:   req.Body,
	}
	if req.Upload != nil {
		cmd.Upload = &domain.Upload{
			OriginalName: req.Upload.OriginalName,
			Data:         req.Upload.Data,
		}
	}
	message, err := g.service.Send(context.Background(), cmd)
	if err != nil {
		return respondErr(err)
	}
	return respond(message)
}

type fetchRequest struct {
	Self     domain.Ref `json:"self"`
	Other    domain.Ref `json:"other"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type fetchReply struct {
	Messages      []domain.Message `json:"messages"`
	Total         int              `json:"total"`
	LastPage      int              `json:"last_page"`
	LastMessageID *uuid.UUID       `json:"last_message_id,omitempty"`
}

func (g *Gateway) handleFetch(data []byte) []byte {
	var req fetchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return respondErr(errors.ErrValidation)
	}
	page, err := g.service.FetchConversation(domain.FetchConversationCommand{
		Self:     req.Self,
		Other:    req.Other,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return respondErr(err)
	}
	return respond(fetchReply{
		Messages:      page.Messages,
		Total:         page.Total,
		LastPage:      page.LastPage,
		LastMessageID: page.LastMessageID,
	})
}

type seenRequest struct {
	Self  domain.Ref `json:"self"`
	Other domain.Ref `json:"other"`
}

func (g *Gateway) handleSeen(data []byte) []byte {
	var req seenRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return respondErr(errors.ErrValidation)
	}
	flipped, err := g.service.MarkSeen(context.Background(), req.Self, req.Other)
	if err != nil {
		return respondErr(err)
	}
	return respond(map[string]int{"seen": flipped})
}

type contactsRequest struct {
	Self     domain.Ref `json:"self"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type contactsReply struct {
	Contacts []services.Contact `json:"contacts"`
	Total    int                `json:"total"`
	LastPage int                `json:"last_page"`
}

func (g *Gateway) handleContacts(data []byte) []byte {
	var req contactsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return respondErr(errors.ErrValidation)
	}
	list, err := g.service.ListContacts(req.Self, req.Page, req.PageSize)
	if err != nil {
		return respondErr(err)
	}
	return respond(contactsReply{Contacts: list.Contacts, Total: list.Total, LastPage: list.LastPage})
}

type favoriteSetRequest struct {
	Owner   domain.Ref `json:"owner"`
	Target  domain.Ref `json:"target"`
	Desired bool       `json:"desired"`
}

func (g *Gateway) handleFavoriteSet(data []byte) []byte {
	var req favoriteSetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return respondErr(errors.ErrValidation)
	}
	if err := g.service.SetFavorite(req.Owner, req.Target, req.Desired); err != nil {
		return respondErr(err)
	}
	return respond(map[string]bool{"favorite": req.Desired})
}

type favoriteListRequest struct {
	Owner domain.Ref `json:"owner"`
}

func (g *Gateway) handleFavoriteList(data []byte) []byte {
	var req favoriteListRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return respondErr(errors.ErrValidation)
	}
	items, err := g.service.ListFavorites(req.Owner)
	if err != nil {
		return respondErr(err)
	}
	return respond(map[string]any{"favorites": items, "total": len(items)})
}

type channelAuthRequest struct {
	Requester domain.Ref `json:"requester"`
	Claimed   domain.Ref `json:"claimed"`
	Channel   string     `json:"channel"`
	SocketID  string     `json:"socket_id"`
}

func (g *Gateway) handleChannelAuth(data []byte) []byte {
	var req channelAuthRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return respondErr(errors.ErrValidation)
	}
	grant, err := g.authorizer.Authorize(req.Requester, req.Claimed, req.Channel, req.SocketID)
	if err != nil {
		return respondErr(err)
	}
	return respond(map[string]string{"grant": grant})
}
