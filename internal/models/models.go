// Package models re-exports the user and posts domains behind one import
// for the HTTP layer.
package models

import (
	posts "github.com/lotbajar/social/internal/models/posts"
	user "github.com/lotbajar/social/internal/models/user"
)

// RegisterModels lists every model for AutoMigrate, parents before
// children so foreign keys resolve.
func RegisterModels() []interface{} {
	return []interface{}{
		&user.Capability{},
		&user.Role{},
		&user.User{},
		&user.Follow{},
		&user.Block{},
		&user.Invitation{},
		&user.Notification{},
		&posts.Post{},
		&posts.Comment{},
		&posts.Reaction{},
		&posts.Report{},
	}
}

type (
	User              = user.User
	UserCard          = user.UserCard
	UserOption        = user.UserOption
	UpdateUserRequest = user.UpdateUserRequest
	Role              = user.Role
	Capability        = user.Capability
	CapabilityName    = user.CapabilityName
	Follow            = user.Follow
	Block             = user.Block
	Invitation        = user.Invitation
	Notification      = user.Notification

	Post          = posts.Post
	PostOption    = posts.PostOption
	Comment       = posts.Comment
	Reaction      = posts.Reaction
	ReactionGroup = posts.ReactionGroup
	ReactorCursor = posts.ReactorCursor
	ToggleOutcome = posts.ToggleOutcome
	Subject       = posts.Subject
	Report        = posts.Report
)

const (
	CapReact            = user.CapReact
	CapCreatePost       = user.CapCreatePost
	CapEditOwnPost      = user.CapEditOwnPost
	CapDeleteOwnPost    = user.CapDeleteOwnPost
	CapCreateComment    = user.CapCreateComment
	CapEditOwnComment   = user.CapEditOwnComment
	CapDeleteOwnComment = user.CapDeleteOwnComment
	CapFollowUser       = user.CapFollowUser
	CapBlockUser        = user.CapBlockUser
	CapReportContent    = user.CapReportContent
	CapModerateContent  = user.CapModerateContent
	CapInviteUser       = user.CapInviteUser
	CapAdminSite        = user.CapAdminSite

	NotifyTypeFollow         = user.NotifyTypeFollow
	NotifyTypeComment        = user.NotifyTypeComment
	NotifyTypeReply          = user.NotifyTypeReply
	NotifyTypeInviteAccepted = user.NotifyTypeInviteAccepted
	NotifyTypeReportResolved = user.NotifyTypeReportResolved

	SubjectPost    = posts.SubjectPost
	SubjectComment = posts.SubjectComment

	ReactionCreated  = posts.ReactionCreated
	ReactionReplaced = posts.ReactionReplaced
	ReactionDeleted  = posts.ReactionDeleted

	ReportStatusOpen      = posts.ReportStatusOpen
	ReportStatusResolved  = posts.ReportStatusResolved
	ReportStatusDismissed = posts.ReportStatusDismissed

	DefaultMaxDistinctEmoji = posts.DefaultMaxDistinctEmoji
	ReactorsPageSize        = posts.ReactorsPageSize
)

var (
	NewUser    = user.NewUser
	GetUserBy  = user.GetUserBy
	GetUsers   = user.GetUsers
	UpdateUser = user.UpdateUser
	DeleteUser = user.DeleteUser
	SeedRoles  = user.SeedRoles
	GetRoleBy  = user.GetRoleBy

	WithUsername      = user.WithUsername
	WithEmail         = user.WithEmail
	WithPassword      = user.WithPassword
	WithIsActive      = user.WithIsActive
	WithEmailVerified = user.WithEmailVerified
	WithRoleID        = user.WithRoleID
	WithName          = user.WithName
	WithBio           = user.WithBio
	WithAvatarURL     = user.WithAvatarURL
	WithLocation      = user.WithLocation
	WithWebsite       = user.WithWebsite
	WithPronouns      = user.WithPronouns

	FollowUser         = user.FollowUser
	UnfollowUser       = user.UnfollowUser
	IsFollowing        = user.IsFollowing
	GetFollowers       = user.GetFollowers
	GetFollowing       = user.GetFollowing
	BlockUser          = user.BlockUser
	UnblockUser        = user.UnblockUser
	IsBlockedEitherWay = user.IsBlockedEitherWay
	BlockedIDSet       = user.BlockedIDSet
	GetBlockedUsers    = user.GetBlockedUsers

	NewInvitation    = user.NewInvitation
	GetInvitationBy  = user.GetInvitationBy
	AcceptInvitation = user.AcceptInvitation
	RevokeInvitation = user.RevokeInvitation
	GetInvitations   = user.GetInvitations

	NotifyUser               = user.NotifyUser
	GetNotifications         = user.GetNotifications
	CountUnreadNotifications = user.CountUnreadNotifications
	MarkNotificationsRead    = user.MarkNotificationsRead

	CreatePost = posts.CreatePost
	GetPostBy  = posts.GetPostBy
	GetPosts   = posts.GetPosts
	GetFeed    = posts.GetFeed
	UpdatePost = posts.UpdatePost
	DeletePost = posts.DeletePost

	WithPostTitle   = posts.WithPostTitle
	WithPostSlug    = posts.WithPostSlug
	WithPostBody    = posts.WithPostBody
	WithPostExcerpt = posts.WithPostExcerpt
	WithPublished   = posts.WithPublished

	CreateComment         = posts.CreateComment
	GetCommentBy          = posts.GetCommentBy
	GetCommentsByPost     = posts.GetCommentsByPost
	CountCommentsForPosts = posts.CountCommentsForPosts
	UpdateComment         = posts.UpdateComment
	DeleteComment         = posts.DeleteComment

	ToggleReaction                = posts.ToggleReaction
	AggregateReactions            = posts.AggregateReactions
	AggregateReactionsForSubjects = posts.AggregateReactionsForSubjects
	UserReaction                  = posts.UserReaction
	ListReactors                  = posts.ListReactors
	DecodeReactorCursor           = posts.DecodeReactorCursor
	ResolveSubject                = posts.ResolveSubject
	AuthorizeReaction             = posts.AuthorizeReaction
	ValidSubjectType              = posts.ValidSubjectType

	CreateReport  = posts.CreateReport
	GetReports    = posts.GetReports
	GetReportBy   = posts.GetReportBy
	ResolveReport = posts.ResolveReport
	CountReports  = posts.CountReports
)
