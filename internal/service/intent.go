package service

import "bump-server/internal/model"

// DeriveMutualIntent 由两条有向边计算互相意向
// 缺失的边按 off 处理，对 3x3 的取值组合全部有定义
func DeriveMutualIntent(viewerEdge, peerEdge *model.FriendLink) model.MutualIntentView {
	viewer := viewerEdge.IntentOrOff()
	peer := peerEdge.IntentOrOff()
	return model.MutualIntentView{
		ViewerIntent: viewer,
		PeerIntent:   peer,
		IsMutual:     viewer == model.IntentShared && peer == model.IntentShared,
	}
}

// ContentVisible viewer 能否查看对方的地点与签到历史
// 只看对方指向 viewer 的边：viewer 自己的意向不会给自己授予可见性
func ContentVisible(view model.MutualIntentView) bool {
	return view.IsMutual || view.PeerIntent.AtLeastPrivate()
}

// splitPair 从一次查询的结果中拆出两条边
func splitPair(links []model.FriendLink, viewerID, peerID uint) (viewerEdge, peerEdge *model.FriendLink) {
	for i := range links {
		l := &links[i]
		switch {
		case l.OwnerID == viewerID && l.PeerID == peerID:
			viewerEdge = l
		case l.OwnerID == peerID && l.PeerID == viewerID:
			peerEdge = l
		}
	}
	return viewerEdge, peerEdge
}

// statusVisibleTo 签到是否对 viewer 可见，ownerEdge 为签到者指向 viewer 的边
func statusVisibleTo(privacy model.StatusPrivacy, ownerEdge *model.FriendLink, view model.MutualIntentView) bool {
	if ownerEdge == nil {
		return false
	}
	switch privacy {
	case model.PrivacyAll:
		return true
	case model.PrivacyIntended:
		return ownerEdge.Intent.AtLeastPrivate()
	case model.PrivacySpecific:
		return view.IsMutual
	}
	return false
}
