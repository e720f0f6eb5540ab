// Package projection converts internal record graphs into the external view
// models. Views contain opaque tokens and public fields only; internal IDs,
// password hashes and other users' session tokens stop here.
package projection

import (
	"fmt"

	"github.com/triplink-app/triplink-api/internal/domain"
	"github.com/triplink-app/triplink-api/internal/ports/out/eventrepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/triprepo"
	"github.com/triplink-app/triplink-api/internal/ports/out/userrepo"
)

// User projects the public summary of a user.
func User(u userrepo.User) domain.UserSummary {
	return domain.UserSummary{
		UserToken: u.UserToken,
		Username:  u.Username,
	}
}

// Session projects the signup/signin payload. It is only ever built from the
// caller's own record.
func Session(u userrepo.User) domain.SessionView {
	return domain.SessionView{
		SessionToken: u.SessionToken,
		UserToken:    u.UserToken,
		Username:     u.Username,
		Email:        u.Email,
	}
}

// Profile projects the caller's own profile. tripTokens maps the trip IDs
// referenced by the user's documents to their external tokens.
func Profile(u userrepo.User, tripTokens map[domain.TripID]string) domain.ProfileView {
	docs := make([]domain.DocumentView, 0, len(u.Documents))
	for _, d := range u.Documents {
		dv := domain.DocumentView{
			DocToken: d.DocToken,
			Type:     d.Type,
			Name:     d.Name,
			URI:      d.URI,
		}
		if d.TripID != nil {
			if tok, ok := tripTokens[*d.TripID]; ok {
				dv.TripToken = &tok
			}
		}
		docs = append(docs, dv)
	}
	return domain.ProfileView{
		UserToken: u.UserToken,
		Username:  u.Username,
		Email:     u.Email,
		Documents: docs,
	}
}

// Trip projects a trip with its owner and participants resolved from users.
// A reference missing from users fails the whole projection; callers surface
// that as an internal error rather than returning a partial view.
func Trip(t triprepo.Trip, users map[domain.UserID]userrepo.User) (domain.TripView, error) {
	owner, ok := users[t.OwnerID]
	if !ok {
		return domain.TripView{}, fmt.Errorf("projection: trip %s owner not loaded", t.TripToken)
	}
	participants := make([]domain.UserSummary, 0, len(t.ParticipantIDs))
	for _, id := range t.ParticipantIDs {
		p, ok := users[id]
		if !ok {
			return domain.TripView{}, fmt.Errorf("projection: trip %s participant not loaded", t.TripToken)
		}
		participants = append(participants, User(p))
	}
	return domain.TripView{
		TripToken:    t.TripToken,
		Name:         t.Name,
		DateStart:    t.DateStart,
		DateEnd:      t.DateEnd,
		Description:  t.Description,
		Owner:        User(owner),
		Participants: participants,
	}, nil
}

// Event projects an event with its creator, participants and info authors
// resolved from users. tripToken is the external token of the event's trip.
func Event(e eventrepo.Event, tripToken string, users map[domain.UserID]userrepo.User) (domain.EventView, error) {
	creator, ok := users[e.CreatorID]
	if !ok {
		return domain.EventView{}, fmt.Errorf("projection: event %s creator not loaded", e.EventToken)
	}
	participants := make([]domain.UserSummary, 0, len(e.ParticipantIDs))
	for _, id := range e.ParticipantIDs {
		p, ok := users[id]
		if !ok {
			return domain.EventView{}, fmt.Errorf("projection: event %s participant not loaded", e.EventToken)
		}
		participants = append(participants, User(p))
	}
	infos := make([]domain.EventInfoView, 0, len(e.Infos))
	for _, info := range e.Infos {
		author, ok := users[info.AuthorID]
		if !ok {
			return domain.EventView{}, fmt.Errorf("projection: event %s info author not loaded", e.EventToken)
		}
		infos = append(infos, domain.EventInfoView{
			InfoToken: info.InfoToken,
			Author:    User(author),
			Name:      info.Name,
			Type:      info.Type,
			URI:       info.URI,
		})
	}
	var seats *int
	if e.Seats != nil {
		v := *e.Seats
		seats = &v
	}
	return domain.EventView{
		EventToken:   e.EventToken,
		TripToken:    tripToken,
		Category:     e.Category,
		Name:         e.Name,
		Description:  e.Description,
		Place:        e.Place,
		Date:         e.Date,
		TimeStart:    e.TimeStart,
		TimeEnd:      e.TimeEnd,
		Seats:        seats,
		Ticket:       e.Ticket,
		Creator:      User(creator),
		Participants: participants,
		Infos:        infos,
	}, nil
}
