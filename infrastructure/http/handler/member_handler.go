package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/oily/oily-api/application/port/inbound"
	"github.com/oily/oily-api/infrastructure/http/middleware"
	"github.com/oily/oily-api/infrastructure/http/response"
	"github.com/oily/oily-api/infrastructure/http/validator"
)

type MemberHandler struct {
	members inbound.MemberUseCase
}

func NewMemberHandler(members inbound.MemberUseCase) *MemberHandler {
	return &MemberHandler{members: members}
}

func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFrom(r.Context())
	if principal == nil {
		response.Unauthorized(w)
		return
	}

	me, err := h.members.Me(r.Context(), principal.MemberID)
	if err != nil {
		response.Failure(w, err)
		return
	}
	response.OK(w, me)
}

func (h *MemberHandler) UpdateNickname(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFrom(r.Context())
	if principal == nil {
		response.Unauthorized(w)
		return
	}

	var req inbound.UpdateNicknameRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		response.Failure(w, err)
		return
	}

	me, err := h.members.UpdateNickname(r.Context(), principal.MemberID, req)
	if err != nil {
		response.Failure(w, err)
		return
	}
	response.OK(w, me)
}

// Lookup serves GET /v1/admin/members/{memberId}; the route is admin-guarded.
func (h *MemberHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	member, err := h.members.Me(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		response.Failure(w, err)
		return
	}
	response.OK(w, member)
}
